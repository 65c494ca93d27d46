package noise

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidCurve = errors.New("noise: curve is not monotonic")

// Point is a curve control point mapping In to Out.
type Point struct {
	In  float32 `yaml:"in"`
	Out float32 `yaml:"out"`
}

// Curve is a monotonic piecewise-linear remapping of field values.
type Curve struct {
	points []Point
}

// NewCurve requires points ordered by strictly increasing In with Out
// never decreasing.
func NewCurve(points ...Point) (Curve, error) {
	if len(points) == 0 {
		return Curve{}, fmt.Errorf("%w: no control points", ErrInvalidCurve)
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.In <= prev.In {
			return Curve{}, fmt.Errorf("%w: input %v does not follow %v", ErrInvalidCurve, cur.In, prev.In)
		}
		if cur.Out < prev.Out {
			return Curve{}, fmt.Errorf("%w: output %v drops below %v", ErrInvalidCurve, cur.Out, prev.Out)
		}
	}
	return Curve{points: append([]Point(nil), points...)}, nil
}

// DefaultCurve flattens low ground and sharpens peaks on a [0, 1] field.
func DefaultCurve() Curve {
	c, _ := NewCurve(
		Point{0, 0},
		Point{0.3, 0.1},
		Point{0.5, 0.25},
		Point{0.7, 0.55},
		Point{0.85, 0.85},
		Point{1, 1},
	)
	return c
}

func (c Curve) Points() []Point {
	return append([]Point(nil), c.points...)
}

// SampleCurve evaluates c at x, clamping outside the first and last points.
// An empty curve is the identity.
func SampleCurve(c Curve, x float32) float32 {
	pts := c.points
	if len(pts) == 0 {
		return x
	}
	if x <= pts[0].In {
		return pts[0].Out
	}
	last := pts[len(pts)-1]
	if x >= last.In {
		return last.Out
	}
	// First point strictly after x; x > pts[0].In so i >= 1.
	i := sort.Search(len(pts), func(i int) bool { return pts[i].In > x })
	a, b := pts[i-1], pts[i]
	t := (x - a.In) / (b.In - a.In)
	return a.Out + t*(b.Out-a.Out)
}

// ApplyCurve remaps every sample of f through c.
func ApplyCurve(f *Field, c Curve) {
	for i, v := range f.Values {
		f.Values[i] = SampleCurve(c, v)
	}
	f.Track()
}
