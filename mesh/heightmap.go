package mesh

import (
	"fmt"

	"ChunkTerrain/compute"
	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
)

func displaceKernel(inv *compute.Invocation) {
	size := inv.IVec3("uSize")
	idx := int32(inv.ID[0])
	if idx >= size[0]*size[1] {
		return
	}
	offset := inv.Vec3("uOffset")
	heights, vertices := inv.Buffer(0), inv.Buffer(1)
	vertices[idx*3+0] = offset[0] + float32(idx%size[0])
	vertices[idx*3+1] = heights[idx]
	vertices[idx*3+2] = offset[2] + float32(idx/size[0])
}

// Heightmap builds a (width+1) x (height+1) vertex grid in the XZ plane
// starting at offset, displaced along Y by 2D noise sampled at
// n.Frequency*scale.
func (s *Synthesizer) Heightmap(width, height int, offset mgl32.Vec3, scale float32, n noise.Params) (*Mesh, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: heightmap %dx%d", ErrInvalidDimensions, width, height)
	}
	dims := noise.Dims{Width: width, Height: height}
	if err := noise.CheckParams(dims, n); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	n.Frequency *= scale

	size, axes := dims.Padded(noise.PadInclusive)
	field := &noise.Field{Size: size, Axes: axes}
	count := field.Len()

	b := s.backend
	heights, err := b.CreateBuffer(count)
	if err != nil {
		return nil, fmt.Errorf("mesh: height buffer: %w", err)
	}
	defer b.DeleteBuffer(heights)
	vertices, err := b.CreateBuffer(count * 3)
	if err != nil {
		return nil, fmt.Errorf("mesh: vertex buffer: %w", err)
	}
	defer b.DeleteBuffer(vertices)

	if err := s.gen.Dispatch(heights, field, offset, n); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	// The displacement pass reads the heights written above.
	b.MemoryBarrier()

	b.UseProgram(s.displace)
	b.BindBuffer(heights, 0)
	b.BindBuffer(vertices, 1)
	b.SetIVec3(s.displace, "uSize", [3]int32{int32(size[0]), int32(size[1]), 1})
	b.SetVec3(s.displace, "uOffset", offset)
	if err := b.Dispatch(compute.GroupCount(count, localSize), 1, 1); err != nil {
		return nil, fmt.Errorf("mesh: dispatch displace: %w", err)
	}

	data, err := compute.ReadBack(b, vertices)
	if err != nil {
		return nil, fmt.Errorf("mesh: read vertices: %w", err)
	}
	if len(data)/3 != count {
		panic(fmt.Sprintf("mesh: heightmap read back %d vertices, want %d", len(data)/3, count))
	}

	m := &Mesh{
		Positions: make([]mgl32.Vec3, count),
		Shading:   Smooth,
	}
	for i := range m.Positions {
		m.Positions[i] = mgl32.Vec3{data[i*3], data[i*3+1], data[i*3+2]}
	}
	m.Normals = gridNormals(m.Positions, size[0], size[1])
	m.Indices = gridIndices(width, height)
	return m, nil
}

// gridIndices emits two counter-clockwise (seen from +Y) triangles per
// grid quad.
func gridIndices(width, height int) []uint32 {
	row := uint32(width + 1)
	indices := make([]uint32, 0, width*height*6)
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			v0 := uint32(z)*row + uint32(x)
			v1 := v0 + 1
			v2 := v0 + row
			v3 := v2 + 1
			indices = append(indices, v0, v2, v1, v1, v2, v3)
		}
	}
	return indices
}

// gridNormals estimates per-vertex normals from central height differences,
// falling back to one-sided differences on the grid edge.
func gridNormals(positions []mgl32.Vec3, cols, rows int) []mgl32.Vec3 {
	h := func(x, z int) float32 {
		return positions[z*cols+x][1]
	}
	slope := func(lo, hi, at, last int, sample func(int) float32) float32 {
		switch {
		case at == 0:
			return sample(hi) - sample(at)
		case at == last:
			return sample(at) - sample(lo)
		}
		return (sample(hi) - sample(lo)) / 2
	}

	normals := make([]mgl32.Vec3, len(positions))
	for z := 0; z < rows; z++ {
		for x := 0; x < cols; x++ {
			dx := slope(x-1, x+1, x, cols-1, func(i int) float32 { return h(i, z) })
			dz := slope(z-1, z+1, z, rows-1, func(j int) float32 { return h(x, j) })
			normals[z*cols+x] = mgl32.Vec3{-dx, 1, -dz}.Normalize()
		}
	}
	return normals
}
