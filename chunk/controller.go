package chunk

import (
	"errors"
	"fmt"
	"log"
	"math"

	"ChunkTerrain/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidSettings = errors.New("chunk: invalid streaming settings")

// Retention decides what happens to a chunk's CPU mesh once it leaves view.
type Retention int

const (
	// Retain keeps the mesh so the chunk reappears without regeneration.
	Retain Retention = iota
	// Evict removes the chunk from the store entirely.
	Evict
)

func (r Retention) String() string {
	if r == Evict {
		return "evict"
	}
	return "retain"
}

// Observer is polled once per tick for the streaming centre.
type Observer interface {
	Position() mgl32.Vec3
}

// Synthesizer builds the mesh for one chunk.
type Synthesizer interface {
	Synthesize(p mesh.Params) (*mesh.Mesh, error)
}

type Settings struct {
	// Dims is 2 for a grid in the XZ plane or 3 for a volume.
	Dims int `validate:"oneof=2 3"`
	// CellSize is the world extent of a chunk. Y is ignored on 2D grids.
	CellSize     mgl32.Vec3
	ViewDistance int       `validate:"gte=0,lte=64"`
	Retention    Retention `validate:"oneof=0 1"`
	// MaxGenerationsPerTick bounds how many chunks one Update may build.
	// Zero means no bound.
	MaxGenerationsPerTick int `validate:"gte=0"`
	// Params returns the mesh request for a coordinate.
	Params func(Coord) mesh.Params `validate:"required"`
}

var validate = validator.New()

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.CellSize[0] <= 0 || s.CellSize[2] <= 0 || (s.Dims == 3 && s.CellSize[1] <= 0) {
		return fmt.Errorf("%w: cell size %v", ErrInvalidSettings, s.CellSize)
	}
	return nil
}

// Stats summarise one Update.
type Stats struct {
	Center    Coord
	Desired   int
	Generated int
	Failed    int
	Attached  int
	Detached  int
	Evicted   int
}

func (s Stats) changed() bool {
	return s.Generated+s.Failed+s.Attached+s.Detached+s.Evicted > 0
}

// Controller keeps the store filled around an observer. It must be driven
// from the thread that owns the GPU context.
type Controller struct {
	store    *Store
	synth    Synthesizer
	uploader Uploader
	settings Settings
	previous map[Coord]struct{}
}

func NewController(store *Store, synth Synthesizer, uploader Uploader, settings Settings) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		store:    store,
		synth:    synth,
		uploader: uploader,
		settings: settings,
		previous: make(map[Coord]struct{}),
	}, nil
}

func (c *Controller) Settings() Settings {
	return c.settings
}

func (c *Controller) Store() *Store {
	return c.store
}

// DesiredCoord is the cell containing p.
func (c *Controller) DesiredCoord(p mgl32.Vec3) Coord {
	return CoordOf(p, c.settings.CellSize, c.settings.Dims)
}

// Neighborhood lists the coordinates around center within the view
// distance, dropping far corners so the window approximates a sphere
// (or circle on 2D grids).
func (c *Controller) Neighborhood(center Coord) []Coord {
	vd := int32(c.settings.ViewDistance)
	limit := float64(int64(vd)*int64(vd)) / 1.5
	ySpan := vd
	if c.settings.Dims == 2 {
		ySpan = 0
	}

	var out []Coord
	for x := -vd; x <= vd; x++ {
		for y := -ySpan; y <= ySpan; y++ {
			for z := -vd; z <= vd; z++ {
				product := int64(x) * int64(z)
				if c.settings.Dims == 3 {
					product *= int64(y)
				}
				if math.Abs(float64(product)) > limit {
					continue
				}
				out = append(out, center.Add(Coord{x, y, z}))
			}
		}
	}
	return out
}

// Tick polls the observer once and updates around its position.
func (c *Controller) Tick(o Observer) Stats {
	return c.Update(o.Position())
}

// Update brings the store in line with an observer at p: missing chunks in
// the neighbourhood are generated, every chunk in it is made active and
// GPU resident, and chunks that were active last tick but fell out of range
// are detached (and evicted under Evict).
func (c *Controller) Update(p mgl32.Vec3) Stats {
	center := c.DesiredCoord(p)
	desired := c.Neighborhood(center)
	stats := Stats{Center: center, Desired: len(desired)}

	c.store.ClearActive()
	budget := c.settings.MaxGenerationsPerTick
	for _, coord := range desired {
		if _, ok := c.store.Get(coord); !ok {
			if budget > 0 && stats.Generated+stats.Failed >= budget {
				continue
			}
			if !c.generate(coord) {
				stats.Failed++
				continue
			}
			stats.Generated++
		}

		ch, _ := c.store.Get(coord)
		if !ch.GPULoaded {
			if err := c.store.AttachGPU(coord, c.uploader); err != nil {
				log.Printf("[Chunks] attach %v: %v", coord, err)
				continue
			}
			stats.Attached++
		}
		c.store.MarkActive(coord)
	}

	for coord := range c.previous {
		if c.store.IsActive(coord) {
			continue
		}
		if c.store.DetachGPU(coord, c.uploader) {
			stats.Detached++
		}
	}
	if c.settings.Retention == Evict {
		stats.Evicted = c.evictOutside(desired)
	}

	current := make(map[Coord]struct{}, len(desired))
	for _, coord := range c.store.ActiveCoordinates() {
		current[coord] = struct{}{}
	}
	c.previous = current

	if stats.changed() {
		log.Printf("[Chunks] center=%v desired=%d generated=%d failed=%d attached=%d detached=%d evicted=%d resident=%d",
			center, stats.Desired, stats.Generated, stats.Failed, stats.Attached, stats.Detached, stats.Evicted, c.store.Len())
	}
	return stats
}

// evictOutside removes every stored chunk outside desired. This also
// catches chunks that were generated but never became active.
func (c *Controller) evictOutside(desired []Coord) int {
	keep := make(map[Coord]struct{}, len(desired))
	for _, coord := range desired {
		keep[coord] = struct{}{}
	}
	var stale []Coord
	c.store.Range(func(ch *Chunk) bool {
		if _, ok := keep[ch.Coord]; !ok && !c.store.IsActive(ch.Coord) {
			stale = append(stale, ch.Coord)
		}
		return true
	})
	for _, coord := range stale {
		c.store.DetachGPU(coord, c.uploader)
		c.store.Remove(coord)
	}
	return len(stale)
}

func (c *Controller) generate(coord Coord) bool {
	m, err := c.synth.Synthesize(c.settings.Params(coord))
	if err != nil {
		log.Printf("[Chunks] generate %v: %v", coord, err)
		return false
	}
	return c.store.Put(coord, m)
}

// Reset releases every GPU resource and empties the store.
func (c *Controller) Reset() {
	var coords []Coord
	c.store.Range(func(ch *Chunk) bool {
		coords = append(coords, ch.Coord)
		return true
	})
	for _, coord := range coords {
		c.store.DetachGPU(coord, c.uploader)
		c.store.Remove(coord)
	}
	c.store.ClearActive()
	c.previous = make(map[Coord]struct{})
	log.Printf("[Chunks] reset, released %d chunks", len(coords))
}

// Reconfigure swaps in new settings and discards everything built under the
// old ones. The next Update regenerates from scratch.
func (c *Controller) Reconfigure(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.Reset()
	c.settings = s
	return nil
}
