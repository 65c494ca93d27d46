package chunk

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Coord identifies a chunk cell. 2D grids lie in the XZ plane with Y == 0.
type Coord struct {
	X int32
	Y int32
	Z int32
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Neighbors returns the six axis-aligned neighbours of c.
func (c Coord) Neighbors() [6]Coord {
	return [6]Coord{
		{c.X + 1, c.Y, c.Z}, {c.X - 1, c.Y, c.Z},
		{c.X, c.Y + 1, c.Z}, {c.X, c.Y - 1, c.Z},
		{c.X, c.Y, c.Z + 1}, {c.X, c.Y, c.Z - 1},
	}
}

// IsNeighbor reports whether c and o differ by exactly one along one axis.
func (c Coord) IsNeighbor(o Coord) bool {
	d := absInt(c.X-o.X) + absInt(c.Y-o.Y) + absInt(c.Z-o.Z)
	return d == 1
}

// Less orders coordinates by X, then Y, then Z.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// Origin is the world-space minimum corner of the cell.
func (c Coord) Origin(cell mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X) * cell[0], float32(c.Y) * cell[1], float32(c.Z) * cell[2]}
}

// CoordOf returns the cell containing p. On 2D grids only X and Z are used.
func CoordOf(p, cell mgl32.Vec3, dims int) Coord {
	floor := func(v, size float32) int32 {
		return int32(math.Floor(float64(v) / float64(size)))
	}
	if dims == 2 {
		return Coord{X: floor(p[0], cell[0]), Z: floor(p[2], cell[2])}
	}
	return Coord{X: floor(p[0], cell[0]), Y: floor(p[1], cell[1]), Z: floor(p[2], cell[2])}
}

func absInt(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
