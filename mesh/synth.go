package mesh

import (
	_ "embed"
	"fmt"

	"ChunkTerrain/compute"
	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/displace.comp
var displaceShader string

const localSize = 64

// Params describes one mesh request. Fields that a Kind does not use are
// ignored.
type Params struct {
	Kind   Kind
	Width  int
	Height int
	Depth  int
	Offset mgl32.Vec3
	Noise  noise.Params

	// Scale multiplies the noise frequency of heightmaps.
	Scale float32
	// IsoLevel is the marching cubes surface density.
	IsoLevel float32
	// Curve and Threshold decide which voxels are solid.
	Curve     noise.Curve
	Threshold float32
}

// Synthesizer turns noise fields into meshes. It owns the displacement
// program; the Generator stays owned by the caller.
type Synthesizer struct {
	gen      *noise.Generator
	backend  compute.Backend
	displace compute.Program
}

func NewSynthesizer(gen *noise.Generator) (*Synthesizer, error) {
	s := &Synthesizer{gen: gen, backend: gen.Backend()}
	var err error
	s.displace, err = s.backend.CompileProgram(compute.Source{
		Name:      "heightmap displace",
		GLSL:      displaceShader,
		LocalSize: [3]uint32{localSize, 1, 1},
		Kernel:    displaceKernel,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: compile displace program: %w", err)
	}
	return s, nil
}

func (s *Synthesizer) Close() {
	if s.displace != 0 {
		s.backend.DeleteProgram(s.displace)
		s.displace = 0
	}
}

// Synthesize builds the mesh for p with the strategy named by p.Kind.
func (s *Synthesizer) Synthesize(p Params) (*Mesh, error) {
	switch p.Kind {
	case Heightmap:
		return s.Heightmap(p.Width, p.Height, p.Offset, p.Scale, p.Noise)
	case MarchingCubes:
		return s.MarchingCubes(p.Width, p.Height, p.Depth, p.Offset, p.IsoLevel, p.Noise)
	case VoxelCubes:
		return s.VoxelCubes(p.Width, p.Height, p.Depth, p.Offset, p.Noise, p.Curve, p.Threshold)
	}
	return nil, fmt.Errorf("mesh: unknown kind %v", p.Kind)
}

func checkVolume(width, height, depth int, n noise.Params) error {
	if width <= 0 || height <= 0 || depth <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, width, height, depth)
	}
	if err := noise.CheckParams(noise.Dims{Width: width, Height: height, Depth: depth}, n); err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	return nil
}
