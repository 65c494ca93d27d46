package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrInvalidDimensions = errors.New("mesh: dimensions must be positive")
	ErrInvalidMesh       = errors.New("mesh: invalid mesh")
)

type Shading int

const (
	// Smooth meshes share vertices and carry averaged normals.
	Smooth Shading = iota
	// Flat meshes duplicate vertices so every face has its own normal.
	Flat
)

func (s Shading) String() string {
	if s == Flat {
		return "flat"
	}
	return "smooth"
}

// Mesh is an indexed triangle list in world space.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
	Shading   Shading
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Validate checks that indices form whole triangles over existing vertices
// and that every vertex has a normal.
func (m *Mesh) Validate() error {
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrInvalidMesh, len(m.Normals), len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at %d out of range [0, %d)", ErrInvalidMesh, idx, i, len(m.Positions))
		}
	}
	return nil
}

// Bounds returns the axis-aligned box around every position. ok is false
// for a mesh without vertices.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	if len(m.Positions) == 0 {
		return lo, hi, false
	}
	inf := float32(math.Inf(1))
	lo = mgl32.Vec3{inf, inf, inf}
	hi = mgl32.Vec3{-inf, -inf, -inf}
	for _, p := range m.Positions {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi, true
}

// faceNormal is the unit normal of the counter-clockwise triangle a, b, c.
// Degenerate triangles face +Y.
func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-12 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}
