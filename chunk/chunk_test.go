package chunk

import (
	"errors"
	"reflect"
	"testing"

	"ChunkTerrain/mesh"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeSynth struct {
	calls []mesh.Params
	fail  map[mgl32.Vec3]int // offset -> remaining failures
}

func (f *fakeSynth) Synthesize(p mesh.Params) (*mesh.Mesh, error) {
	f.calls = append(f.calls, p)
	if f.fail[p.Offset] > 0 {
		f.fail[p.Offset]--
		return nil, errors.New("map buffer for read failed")
	}
	return &mesh.Mesh{
		Positions: []mgl32.Vec3{p.Offset, p.Offset.Add(mgl32.Vec3{1, 0, 0}), p.Offset.Add(mgl32.Vec3{0, 0, 1})},
		Normals:   []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 2, 1},
	}, nil
}

type fakeUploader struct {
	next     uint32
	uploads  int
	releases int
	live     map[uint32]bool
	fail     bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{live: make(map[uint32]bool)}
}

func (u *fakeUploader) Upload(m *mesh.Mesh) (Handles, error) {
	if u.fail {
		return Handles{}, errors.New("out of memory")
	}
	u.uploads++
	u.next++
	u.live[u.next] = true
	return Handles{VAO: u.next, Positions: u.next, Normals: u.next, Elements: u.next, IndexCount: int32(len(m.Indices))}, nil
}

func (u *fakeUploader) Release(h Handles) {
	u.releases++
	delete(u.live, h.VAO)
}

func testSettings(dims int) Settings {
	cell := mgl32.Vec3{100, 100, 100}
	return Settings{
		Dims:         dims,
		CellSize:     cell,
		ViewDistance: 1,
		Params: func(c Coord) mesh.Params {
			return mesh.Params{Kind: mesh.Heightmap, Width: 100, Height: 100, Offset: c.Origin(cell)}
		},
	}
}

func newTestController(t *testing.T, s Settings) (*Controller, *fakeSynth, *fakeUploader) {
	t.Helper()
	synth := &fakeSynth{fail: make(map[mgl32.Vec3]int)}
	up := newFakeUploader()
	c, err := NewController(NewStore(), synth, up, s)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, synth, up
}

func coords2D(pairs ...[2]int32) []Coord {
	out := make([]Coord, len(pairs))
	for i, p := range pairs {
		out[i] = Coord{X: p[0], Z: p[1]}
	}
	return out
}

func TestUpdateEndToEnd2D(t *testing.T) {
	c, synth, up := newTestController(t, testSettings(2))

	stats := c.Update(mgl32.Vec3{0, 0, 0})
	want := coords2D([2]int32{-1, 0}, [2]int32{0, -1}, [2]int32{0, 0}, [2]int32{0, 1}, [2]int32{1, 0})
	if got := c.Store().ActiveCoordinates(); !reflect.DeepEqual(got, want) {
		t.Fatalf("active = %v, want %v", got, want)
	}
	if stats.Desired != 5 || stats.Generated != 5 || stats.Attached != 5 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, coord := range want {
		ch, ok := c.Store().Get(coord)
		if !ok || !ch.GPULoaded || !ch.Resident {
			t.Fatalf("chunk %v not resident and GPU loaded: %+v", coord, ch)
		}
	}
	if len(synth.calls) != 5 || up.uploads != 5 {
		t.Fatalf("synth calls = %d, uploads = %d", len(synth.calls), up.uploads)
	}

	stats = c.Update(mgl32.Vec3{150, 0, 0})
	if stats.Center != (Coord{X: 1}) {
		t.Fatalf("center = %v, want (1,0,0)", stats.Center)
	}
	gone := Coord{X: -1}
	if c.Store().IsActive(gone) {
		t.Fatalf("%v still active", gone)
	}
	ch, ok := c.Store().Get(gone)
	if !ok {
		t.Fatalf("%v evicted under retain policy", gone)
	}
	if ch.GPULoaded {
		t.Fatalf("%v still GPU loaded", gone)
	}
	// (0,±1) also fall out of the window centred on (1,0).
	if stats.Detached != 3 {
		t.Fatalf("detached = %d, want 3", stats.Detached)
	}
	if stats.Generated != 3 {
		t.Fatalf("generated = %d, want 3 new cells", stats.Generated)
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	for _, dims := range []int{2, 3} {
		c, synth, up := newTestController(t, testSettings(dims))
		p := mgl32.Vec3{-30, 250, 470}
		c.Update(p)
		calls, uploads, releases := len(synth.calls), up.uploads, up.releases
		active := c.Store().ActiveCoordinates()

		stats := c.Update(p)
		if len(synth.calls) != calls || up.uploads != uploads || up.releases != releases {
			t.Fatalf("dims %d: second update did work: %+v", dims, stats)
		}
		if stats.Generated != 0 || stats.Attached != 0 || stats.Detached != 0 {
			t.Fatalf("dims %d: stats = %+v", dims, stats)
		}
		if got := c.Store().ActiveCoordinates(); !reflect.DeepEqual(got, active) {
			t.Fatalf("dims %d: active set changed: %v -> %v", dims, active, got)
		}
	}
}

func TestNeighborhood(t *testing.T) {
	tests := []struct {
		name string
		dims int
		vd   int
		want int
	}{
		{"2d vd0", 2, 0, 1},
		{"2d vd1", 2, 1, 5},
		// vd 2: |x*z| > 2.67 drops the four (±2,±2) corners.
		{"2d vd2", 2, 2, 21},
		{"3d vd1", 3, 1, 19},
		{"3d vd2", 3, 2, 93},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(tt.dims)
			s.ViewDistance = tt.vd
			c, _, _ := newTestController(t, s)
			got := c.Neighborhood(Coord{X: 4, Y: 0, Z: -2})
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			seen := make(map[Coord]bool)
			for _, coord := range got {
				if seen[coord] {
					t.Fatalf("duplicate %v", coord)
				}
				seen[coord] = true
				if tt.dims == 2 && coord.Y != 0 {
					t.Fatalf("2D coordinate %v off the plane", coord)
				}
			}
		})
	}
}

func TestDesiredCoord(t *testing.T) {
	c, _, _ := newTestController(t, testSettings(3))
	tests := []struct {
		p    mgl32.Vec3
		want Coord
	}{
		{mgl32.Vec3{0, 0, 0}, Coord{0, 0, 0}},
		{mgl32.Vec3{99.9, 100, 150}, Coord{0, 1, 1}},
		{mgl32.Vec3{-0.1, -100, -100.5}, Coord{-1, -1, -2}},
	}
	for _, tt := range tests {
		if got := c.DesiredCoord(tt.p); got != tt.want {
			t.Errorf("DesiredCoord(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestUpdateEvicts(t *testing.T) {
	s := testSettings(2)
	s.Retention = Evict
	c, _, up := newTestController(t, s)

	c.Update(mgl32.Vec3{0, 0, 0})
	stats := c.Update(mgl32.Vec3{1050, 0, 0})
	if stats.Evicted != 5 || stats.Detached != 5 {
		t.Fatalf("stats = %+v, want 5 detached and evicted", stats)
	}
	if c.Store().Len() != 5 {
		t.Fatalf("store holds %d chunks, want 5", c.Store().Len())
	}
	for _, coord := range coords2D([2]int32{0, 0}, [2]int32{-1, 0}, [2]int32{1, 0}) {
		if _, ok := c.Store().Get(coord); ok {
			t.Fatalf("%v not evicted", coord)
		}
	}
	if len(up.live) != 5 {
		t.Fatalf("%d GPU handles live, want 5", len(up.live))
	}
}

func TestUpdateEvictsChunksThatNeverAttached(t *testing.T) {
	s := testSettings(2)
	s.Retention = Evict
	c, _, up := newTestController(t, s)

	up.fail = true
	stats := c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Generated != 5 || stats.Attached != 0 {
		t.Fatalf("stats = %+v, want 5 generated and none attached", stats)
	}
	if got := c.Store().ActiveCoordinates(); len(got) != 0 {
		t.Fatalf("active = %v, want none", got)
	}

	up.fail = false
	stats = c.Update(mgl32.Vec3{1050, 0, 0})
	if stats.Evicted != 5 {
		t.Fatalf("stats = %+v, want the 5 unattached chunks evicted", stats)
	}
	if c.Store().Len() != 5 {
		t.Fatalf("store holds %d chunks, want 5", c.Store().Len())
	}
	if _, ok := c.Store().Get(Coord{}); ok {
		t.Fatal("origin chunk left behind")
	}
}

func TestUpdateRetriesFailedGeneration(t *testing.T) {
	c, synth, _ := newTestController(t, testSettings(2))
	synth.fail[mgl32.Vec3{100, 0, 0}] = 1

	stats := c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Failed != 1 || stats.Generated != 4 {
		t.Fatalf("stats = %+v", stats)
	}
	failed := Coord{X: 1}
	if _, ok := c.Store().Get(failed); ok {
		t.Fatalf("failed coordinate %v was stored", failed)
	}
	if c.Store().IsActive(failed) {
		t.Fatalf("failed coordinate %v is active", failed)
	}

	stats = c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Generated != 1 || stats.Failed != 0 {
		t.Fatalf("retry stats = %+v", stats)
	}
	if !c.Store().IsActive(failed) {
		t.Fatalf("%v not active after retry", failed)
	}
}

func TestUpdateAttachFailureLeavesChunkInactive(t *testing.T) {
	c, _, up := newTestController(t, testSettings(2))
	up.fail = true
	stats := c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Generated != 5 || stats.Attached != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if n := len(c.Store().ActiveCoordinates()); n != 0 {
		t.Fatalf("%d chunks active without GPU data", n)
	}

	up.fail = false
	stats = c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Generated != 0 || stats.Attached != 5 {
		t.Fatalf("stats after recovery = %+v", stats)
	}
}

func TestMaxGenerationsPerTick(t *testing.T) {
	s := testSettings(3)
	s.MaxGenerationsPerTick = 4
	c, _, _ := newTestController(t, s)

	total := 0
	for i := 0; i < 10; i++ {
		stats := c.Update(mgl32.Vec3{0, 0, 0})
		if stats.Generated > 4 {
			t.Fatalf("tick %d generated %d chunks", i, stats.Generated)
		}
		total += stats.Generated
	}
	if total != 19 {
		t.Fatalf("generated %d chunks in total, want 19", total)
	}
	if n := len(c.Store().ActiveCoordinates()); n != 19 {
		t.Fatalf("%d active, want 19", n)
	}
}

func TestResetAndReconfigure(t *testing.T) {
	c, synth, up := newTestController(t, testSettings(2))
	c.Update(mgl32.Vec3{0, 0, 0})

	c.Reset()
	if c.Store().Len() != 0 || len(c.Store().ActiveCoordinates()) != 0 {
		t.Fatalf("store not empty after reset")
	}
	if len(up.live) != 0 {
		t.Fatalf("%d GPU handles leaked", len(up.live))
	}

	s := testSettings(3)
	if err := c.Reconfigure(s); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	before := len(synth.calls)
	stats := c.Update(mgl32.Vec3{0, 0, 0})
	if stats.Generated != 19 || len(synth.calls)-before != 19 {
		t.Fatalf("stats after reconfigure = %+v", stats)
	}

	bad := s
	bad.Dims = 4
	if err := c.Reconfigure(bad); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("err = %v, want ErrInvalidSettings", err)
	}
	if c.Store().Len() != 19 {
		t.Fatalf("rejected settings still reset the store")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(s *Settings) {}, false},
		{"dims", func(s *Settings) { s.Dims = 1 }, true},
		{"view distance", func(s *Settings) { s.ViewDistance = -1 }, true},
		{"view distance cap", func(s *Settings) { s.ViewDistance = 65 }, true},
		{"view distance at cap", func(s *Settings) { s.ViewDistance = 64 }, false},
		{"retention", func(s *Settings) { s.Retention = 7 }, true},
		{"budget", func(s *Settings) { s.MaxGenerationsPerTick = -3 }, true},
		{"no params", func(s *Settings) { s.Params = nil }, true},
		{"cell size", func(s *Settings) { s.CellSize = mgl32.Vec3{100, 0, 0} }, true},
		{"2d ignores cell y", func(s *Settings) { s.Dims = 2; s.CellSize[1] = 0 }, false},
		{"3d needs cell y", func(s *Settings) { s.CellSize[1] = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(3)
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("err = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestControllerWithSynthesizer(t *testing.T) {
	// Params hand each chunk its own world offset.
	c, synth, _ := newTestController(t, testSettings(2))
	c.Update(mgl32.Vec3{0, 0, 0})
	offsets := make(map[mgl32.Vec3]bool)
	for _, p := range synth.calls {
		if offsets[p.Offset] {
			t.Fatalf("offset %v generated twice", p.Offset)
		}
		offsets[p.Offset] = true
	}
	if !offsets[mgl32.Vec3{-100, 0, 0}] || !offsets[mgl32.Vec3{0, 0, 100}] {
		t.Fatalf("offsets = %v", offsets)
	}
}
