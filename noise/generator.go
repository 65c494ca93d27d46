package noise

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"ChunkTerrain/compute"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

var ErrInvalidParams = errors.New("noise: invalid fractal parameters")

//go:embed shaders/noise.glsl
var noiseLibrary string

//go:embed shaders/field.comp
var fieldShader string

const localSize = 64

type Basis int

const (
	BasisSimplex Basis = iota
	BasisPerlin
)

func (b Basis) String() string {
	switch b {
	case BasisSimplex:
		return "simplex"
	case BasisPerlin:
		return "perlin"
	}
	return fmt.Sprintf("Basis(%d)", int(b))
}

func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(s) {
	case "simplex", "":
		return BasisSimplex, nil
	case "perlin":
		return BasisPerlin, nil
	}
	return 0, fmt.Errorf("noise: unknown basis %q", s)
}

// source is a seeded gradient noise function evaluated on the CPU device.
type source interface {
	Eval2(x, y float32) float32
	Eval3(x, y, z float32) float32
}

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval2(x, y float32) float32 {
	return float32(s.p.Noise2D(float64(x), float64(y)))
}

func (s perlinSource) Eval3(x, y, z float32) float32 {
	return float32(s.p.Noise3D(float64(x), float64(y), float64(z)))
}

func newSource(seed int64, b Basis) (source, error) {
	switch b {
	case BasisSimplex:
		return opensimplex.New32(seed), nil
	case BasisPerlin:
		// A single octave: layering is done by the field kernel.
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}, nil
	}
	return nil, fmt.Errorf("noise: unknown basis %d", int(b))
}

// Generator fills noise fields on a compute backend. It owns its field
// program until Close.
type Generator struct {
	backend compute.Backend
	program compute.Program
	seed    int64
	basis   Basis
	src     source
}

func NewGenerator(backend compute.Backend, seed int64, basis Basis) (*Generator, error) {
	src, err := newSource(seed, basis)
	if err != nil {
		return nil, err
	}
	g := &Generator{backend: backend, seed: seed, basis: basis, src: src}
	g.program, err = backend.CompileProgram(compute.Source{
		Name:      "noise field",
		GLSL:      "#version 430\n" + noiseLibrary + fieldShader,
		LocalSize: [3]uint32{localSize, 1, 1},
		Kernel:    g.fieldKernel,
	})
	if err != nil {
		return nil, fmt.Errorf("noise: compile field program: %w", err)
	}
	return g, nil
}

func (g *Generator) Backend() compute.Backend {
	return g.backend
}

func (g *Generator) Seed() int64 {
	return g.seed
}

func (g *Generator) Basis() Basis {
	return g.basis
}

func (g *Generator) Close() {
	if g.program != 0 {
		g.backend.DeleteProgram(g.program)
		g.program = 0
	}
}

// seedOffset shifts the device lattice so the GLSL basis, which has no
// permutation table of its own, still varies with the seed.
func seedOffset(seed int64) mgl32.Vec3 {
	x := uint64(seed)
	var out mgl32.Vec3
	for i := range out {
		x += 0x9e3779b97f4a7c15
		z := x
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		out[i] = float32(z%8192) + 0.5
	}
	return out
}

// CheckParams reports whether a field of dims can be generated with p
// without touching the backend.
func CheckParams(dims Dims, p Params) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if p.Octaves < 0 {
		return fmt.Errorf("%w: %d octaves", ErrInvalidDimensions, p.Octaves)
	}
	if p.Dropoff && !dims.Is2D() && p.DropoffSpan <= 0 {
		return fmt.Errorf("%w: dropoff span %v", ErrInvalidParams, p.DropoffSpan)
	}
	return nil
}

// GenerateField samples fractal noise on a lattice whose origin sits at
// offset in world space. Only the world position of a sample enters the
// kernel, so neighbouring lattices agree on shared boundary samples.
func (g *Generator) GenerateField(dims Dims, padding Padding, offset mgl32.Vec3, p Params) (*Field, error) {
	if err := CheckParams(dims, p); err != nil {
		return nil, err
	}
	size, axes := dims.Padded(padding)
	f := &Field{Size: size, Axes: axes}
	n := f.Len()

	buf, err := g.backend.CreateBuffer(n)
	if err != nil {
		return nil, fmt.Errorf("noise: field buffer: %w", err)
	}
	defer g.backend.DeleteBuffer(buf)

	if err := g.Dispatch(buf, f, offset, p); err != nil {
		return nil, err
	}
	values, err := compute.ReadBack(g.backend, buf)
	if err != nil {
		return nil, fmt.Errorf("noise: read field: %w", err)
	}
	f.Values = values[:n]
	f.Track()
	return f, nil
}

// Dispatch runs the field program into buf without reading it back. The
// caller owns buf and must issue a barrier before using the samples.
func (g *Generator) Dispatch(buf compute.Buffer, f *Field, offset mgl32.Vec3, p Params) error {
	b := g.backend
	b.UseProgram(g.program)
	b.BindBuffer(buf, 0)
	b.SetIVec3(g.program, "uSize", [3]int32{int32(f.Size[0]), int32(f.Size[1]), int32(f.Size[2])})
	b.SetInt(g.program, "uAxes", int32(f.Axes))
	b.SetInt(g.program, "uBasis", int32(g.basis))
	b.SetVec3(g.program, "uOffset", offset)
	b.SetVec3(g.program, "uSeedOffset", seedOffset(g.seed))
	b.SetFloat(g.program, "uAmplitude", p.Amplitude)
	b.SetFloat(g.program, "uFrequency", p.Frequency)
	b.SetInt(g.program, "uOctaves", int32(p.Octaves))
	b.SetFloat(g.program, "uPersistence", p.Persistence)
	b.SetFloat(g.program, "uLacunarity", p.Lacunarity)
	dropoff := int32(0)
	if p.Dropoff {
		dropoff = 1
	}
	b.SetInt(g.program, "uDropoff", dropoff)
	b.SetFloat(g.program, "uDropoffPlane", p.DropoffPlane)
	b.SetFloat(g.program, "uDropoffSpan", p.DropoffSpan)
	b.SetFloat(g.program, "uTotalAmplitude", p.TotalAmplitude())

	if err := b.Dispatch(compute.GroupCount(f.Len(), localSize), 1, 1); err != nil {
		return fmt.Errorf("noise: dispatch field: %w", err)
	}
	return nil
}

func (g *Generator) fieldKernel(inv *compute.Invocation) {
	size := inv.IVec3("uSize")
	axes := inv.Int("uAxes")
	count := size[0] * size[1]
	if axes == 3 {
		count *= size[2]
	}
	idx := int32(inv.ID[0])
	if idx >= count {
		return
	}

	offset := inv.Vec3("uOffset")
	x := idx % size[0]
	rest := idx / size[0]
	var world mgl32.Vec3
	if axes == 2 {
		world = offset.Add(mgl32.Vec3{float32(x), 0, float32(rest)})
	} else {
		world = offset.Add(mgl32.Vec3{float32(x), float32(rest % size[1]), float32(rest / size[1])})
	}

	value := float32(0)
	frequency := inv.Float("uFrequency")
	amplitude := inv.Float("uAmplitude")
	lacunarity := inv.Float("uLacunarity")
	persistence := inv.Float("uPersistence")
	for n := int32(0); n < inv.Int("uOctaves"); n++ {
		p := world.Mul(frequency)
		if axes == 2 {
			value += g.src.Eval2(p[0], p[2]) * amplitude
		} else {
			value += g.src.Eval3(p[0], p[1], p[2]) * amplitude
		}
		frequency *= lacunarity
		amplitude *= persistence
	}

	if axes == 3 && inv.Int("uDropoff") != 0 {
		total := inv.Float("uTotalAmplitude")
		f := mgl32.Clamp(1-(world[1]-inv.Float("uDropoffPlane"))/inv.Float("uDropoffSpan"), 0, 2)
		value = (value+total)*f - total
	}

	inv.Buffer(0)[idx] = value
}
