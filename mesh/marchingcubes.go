package mesh

import (
	"fmt"

	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-5

// Cube corners and edges in Bourke order.
var (
	cornerOffsets = [8][3]int{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	edgeCorners = [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
)

// cubeIndex sets bit i when corner i lies below the iso level.
func cubeIndex(densities [8]float32, isoLevel float32) uint8 {
	var idx uint8
	for i, d := range densities {
		if d < isoLevel {
			idx |= 1 << i
		}
	}
	return idx
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// interpolate finds where the surface crosses the edge p1-p2. Endpoints are
// ordered lexicographically first so both cells sharing an edge compute the
// same point; when the densities are equal the result snaps to the lower
// endpoint, not to p1.
func interpolate(isoLevel float32, p1, p2 mgl32.Vec3, v1, v2 float32) mgl32.Vec3 {
	if lessVec(p2, p1) {
		p1, p2 = p2, p1
		v1, v2 = v2, v1
	}
	if abs32(isoLevel-v1) < epsilon {
		return p1
	}
	if abs32(isoLevel-v2) < epsilon {
		return p2
	}
	if abs32(v1-v2) < epsilon {
		return p1
	}
	mu := (isoLevel - v1) / (v2 - v1)
	return p1.Add(p2.Sub(p1).Mul(mu))
}

func lessVec(a, b mgl32.Vec3) bool {
	for k := 0; k < 3; k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

// MarchingCubes extracts the isoLevel surface of a padded 3D field covering
// width x height x depth cells from offset. Triangles are flat shaded.
func (s *Synthesizer) MarchingCubes(width, height, depth int, offset mgl32.Vec3, isoLevel float32, n noise.Params) (*Mesh, error) {
	if err := checkVolume(width, height, depth, n); err != nil {
		return nil, err
	}
	field, err := s.gen.GenerateField(noise.Dims{Width: width, Height: height, Depth: depth}, noise.PadInclusive, offset, n)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	return polygonise(field, width, height, depth, offset, isoLevel), nil
}

func polygonise(field *noise.Field, width, height, depth int, offset mgl32.Vec3, isoLevel float32) *Mesh {
	cell := func(x, y, z int) (uint8, [8]float32) {
		var d [8]float32
		for i, c := range cornerOffsets {
			d[i] = field.At(x+c[0], y+c[1], z+c[2])
		}
		return cubeIndex(d, isoLevel), d
	}

	triangles := 0
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx, _ := cell(x, y, z)
				for _, e := range triTable[idx] {
					if e < 0 {
						break
					}
					triangles++
				}
			}
		}
	}
	triangles /= 3

	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, triangles*3),
		Normals:   make([]mgl32.Vec3, 0, triangles*3),
		Indices:   make([]uint32, 0, triangles*3),
		Shading:   Flat,
	}
	var verts [12]mgl32.Vec3
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx, d := cell(x, y, z)
				edges := edgeTable[idx]
				if edges == 0 {
					continue
				}
				for e, ends := range edgeCorners {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := cornerOffsets[ends[0]], cornerOffsets[ends[1]]
					pa := offset.Add(mgl32.Vec3{float32(x + a[0]), float32(y + a[1]), float32(z + a[2])})
					pb := offset.Add(mgl32.Vec3{float32(x + b[0]), float32(y + b[1]), float32(z + b[2])})
					verts[e] = interpolate(isoLevel, pa, pb, d[ends[0]], d[ends[1]])
				}
				row := triTable[idx]
				for i := 0; row[i] >= 0; i += 3 {
					v0, v1, v2 := verts[row[i]], verts[row[i+1]], verts[row[i+2]]
					normal := faceNormal(v0, v1, v2)
					base := uint32(len(m.Positions))
					m.Positions = append(m.Positions, v0, v1, v2)
					m.Normals = append(m.Normals, normal, normal, normal)
					m.Indices = append(m.Indices, base, base+1, base+2)
				}
			}
		}
	}
	return m
}
