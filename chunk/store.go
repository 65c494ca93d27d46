package chunk

import (
	"errors"
	"fmt"
	"sort"

	"ChunkTerrain/mesh"
)

var ErrNotFound = errors.New("chunk: coordinate not in store")

// Handles are the GPU objects backing one chunk's mesh.
type Handles struct {
	VAO        uint32
	Positions  uint32
	Normals    uint32
	Elements   uint32
	IndexCount int32
}

// Uploader moves meshes to the GPU and frees them again.
type Uploader interface {
	Upload(m *mesh.Mesh) (Handles, error)
	Release(h Handles)
}

type Chunk struct {
	Coord     Coord
	Mesh      *mesh.Mesh
	Resident  bool
	GPULoaded bool
	GPU       Handles
}

// Store owns every chunk. A coordinate is either absent or maps to exactly
// one chunk, and the active set is always a subset of the stored chunks.
type Store struct {
	chunks map[Coord]*Chunk
	active map[Coord]struct{}
}

func NewStore() *Store {
	return &Store{
		chunks: make(map[Coord]*Chunk),
		active: make(map[Coord]struct{}),
	}
}

func (s *Store) Get(c Coord) (*Chunk, bool) {
	ch, ok := s.chunks[c]
	return ch, ok
}

// Put stores m under c. It reports false and changes nothing when c is
// already present; callers Remove first to regenerate.
func (s *Store) Put(c Coord, m *mesh.Mesh) bool {
	if m == nil {
		return false
	}
	if _, ok := s.chunks[c]; ok {
		return false
	}
	s.chunks[c] = &Chunk{Coord: c, Mesh: m, Resident: true}
	return true
}

// Remove drops c from the store and the active set. GPU handles are not
// released; detach first.
func (s *Store) Remove(c Coord) (*Chunk, bool) {
	ch, ok := s.chunks[c]
	if !ok {
		return nil, false
	}
	delete(s.chunks, c)
	delete(s.active, c)
	ch.Resident = false
	return ch, true
}

// MarkActive adds a stored coordinate to the active set.
func (s *Store) MarkActive(c Coord) bool {
	if _, ok := s.chunks[c]; !ok {
		return false
	}
	s.active[c] = struct{}{}
	return true
}

func (s *Store) ClearActive() {
	clear(s.active)
}

func (s *Store) IsActive(c Coord) bool {
	_, ok := s.active[c]
	return ok
}

// ActiveCoordinates returns a sorted copy of the active set.
func (s *Store) ActiveCoordinates() []Coord {
	out := make([]Coord, 0, len(s.active))
	for c := range s.active {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s *Store) Len() int {
	return len(s.chunks)
}

// Range calls fn for every stored chunk in unspecified order until fn
// returns false. fn must not add or remove chunks.
func (s *Store) Range(fn func(*Chunk) bool) {
	for _, ch := range s.chunks {
		if !fn(ch) {
			return
		}
	}
}

// AttachGPU uploads the chunk's mesh unless it is already GPU resident.
func (s *Store) AttachGPU(c Coord, up Uploader) error {
	ch, ok := s.chunks[c]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotFound, c)
	}
	if ch.GPULoaded {
		return nil
	}
	h, err := up.Upload(ch.Mesh)
	if err != nil {
		return fmt.Errorf("chunk: upload %v: %w", c, err)
	}
	ch.GPU = h
	ch.GPULoaded = true
	return nil
}

// DetachGPU releases the chunk's GPU handles and reports whether any were
// held. CPU data is kept.
func (s *Store) DetachGPU(c Coord, up Uploader) bool {
	ch, ok := s.chunks[c]
	if !ok || !ch.GPULoaded {
		return false
	}
	up.Release(ch.GPU)
	ch.GPU = Handles{}
	ch.GPULoaded = false
	return true
}
