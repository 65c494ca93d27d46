package mesh

import (
	"fmt"

	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
)

type cubeFace struct {
	dir     [3]int
	normal  mgl32.Vec3
	corners [4]mgl32.Vec3 // counter-clockwise seen from outside
}

var cubeFaces = [6]cubeFace{
	// Front face
	{[3]int{0, 0, 1}, mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{
		{0, 0, 1}, // Bottom-left
		{1, 0, 1}, // Bottom-right
		{1, 1, 1}, // Top-right
		{0, 1, 1}, // Top-left
	}},
	// Back face
	{[3]int{0, 0, -1}, mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{
		{0, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
		{1, 0, 0},
	}},
	// Left face
	{[3]int{-1, 0, 0}, mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{
		{0, 0, 0},
		{0, 0, 1},
		{0, 1, 1},
		{0, 1, 0},
	}},
	// Right face
	{[3]int{1, 0, 0}, mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{
		{1, 0, 0},
		{1, 1, 0},
		{1, 1, 1},
		{1, 0, 1},
	}},
	// Top face
	{[3]int{0, 1, 0}, mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{
		{0, 1, 0},
		{0, 1, 1},
		{1, 1, 1},
		{1, 1, 0},
	}},
	// Bottom face
	{[3]int{0, -1, 0}, mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{1, 0, 1},
		{0, 0, 1},
	}},
}

// VoxelCubes builds unit cubes for every cell whose normalised, curved noise
// value exceeds threshold. Faces next to empty space or on the chunk
// boundary are emitted.
func (s *Synthesizer) VoxelCubes(width, height, depth int, offset mgl32.Vec3, n noise.Params, curve noise.Curve, threshold float32) (*Mesh, error) {
	if err := checkVolume(width, height, depth, n); err != nil {
		return nil, err
	}
	field, err := s.gen.GenerateField(noise.Dims{Width: width, Height: height, Depth: depth}, noise.PadInclusive, offset, n)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	noise.NormalizeField(field, noise.Unit)
	noise.ApplyCurve(field, curve)
	return voxelize(field, width, height, depth, offset, threshold), nil
}

func voxelize(field *noise.Field, width, height, depth int, offset mgl32.Vec3, threshold float32) *Mesh {
	// Only nominal cells count as solid. Each chunk normalises its own field,
	// so the padded far layer may disagree with the next chunk's first cell;
	// faces on the chunk boundary are therefore always emitted.
	solid := func(x, y, z int) bool {
		if x < 0 || y < 0 || z < 0 || x >= width || y >= height || z >= depth {
			return false
		}
		return field.At(x, y, z) > threshold
	}
	exposed := func(x, y, z int, f *cubeFace) bool {
		return !solid(x+f.dir[0], y+f.dir[1], z+f.dir[2])
	}

	faces := 0
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !solid(x, y, z) {
					continue
				}
				for i := range cubeFaces {
					if exposed(x, y, z, &cubeFaces[i]) {
						faces++
					}
				}
			}
		}
	}

	m := &Mesh{
		Positions: make([]mgl32.Vec3, faces*4),
		Normals:   make([]mgl32.Vec3, faces*4),
		Indices:   make([]uint32, faces*6),
		Shading:   Flat,
	}
	face := 0
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !solid(x, y, z) {
					continue
				}
				origin := offset.Add(mgl32.Vec3{float32(x), float32(y), float32(z)})
				for i := range cubeFaces {
					f := &cubeFaces[i]
					if !exposed(x, y, z, f) {
						continue
					}
					v := face * 4
					for c, corner := range f.corners {
						m.Positions[v+c] = origin.Add(corner)
						m.Normals[v+c] = f.normal
					}
					base := uint32(v)
					copy(m.Indices[face*6:], []uint32{base, base + 1, base + 2, base, base + 2, base + 3})
					face++
				}
			}
		}
	}
	return m
}
