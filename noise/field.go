package noise

import (
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("noise: dimensions must be positive")

// Dims is the nominal lattice size. Depth == 0 selects a 2D lattice lying
// in the world XZ plane (Width along X, Height along Z).
type Dims struct {
	Width  int
	Height int
	Depth  int
}

func (d Dims) Is2D() bool {
	return d.Depth == 0
}

func (d Dims) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth < 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, d.Width, d.Height, d.Depth)
	}
	return nil
}

type Padding int

const (
	PadNone Padding = iota
	// PadInclusive adds one sample per generated axis so the far boundary
	// of a cell is sampled too.
	PadInclusive
)

// Padded returns the per-axis sample counts and the number of axes.
func (d Dims) Padded(p Padding) ([3]int, int) {
	extra := 0
	if p == PadInclusive {
		extra = 1
	}
	if d.Is2D() {
		return [3]int{d.Width + extra, d.Height + extra, 1}, 2
	}
	return [3]int{d.Width + extra, d.Height + extra, d.Depth + extra}, 3
}

// Field is a flat lattice of samples. 2D fields are row-major
// (j*Size[0] + i), 3D fields are layer-major ((z*Size[1] + y)*Size[0] + x).
type Field struct {
	Size   [3]int
	Axes   int
	Values []float32
	Min    float32
	Max    float32
}

func (f *Field) Len() int {
	n := 1
	for i := 0; i < f.Axes; i++ {
		n *= f.Size[i]
	}
	return n
}

func (f *Field) Index(x, y, z int) int {
	if f.Axes == 2 {
		return y*f.Size[0] + x
	}
	return (z*f.Size[1]+y)*f.Size[0] + x
}

func (f *Field) At(x, y, z int) float32 {
	return f.Values[f.Index(x, y, z)]
}

// Track recomputes Min and Max from the samples.
func (f *Field) Track() {
	if len(f.Values) == 0 {
		f.Min, f.Max = 0, 0
		return
	}
	f.Min, f.Max = f.Values[0], f.Values[0]
	for _, v := range f.Values[1:] {
		if v < f.Min {
			f.Min = v
		}
		if v > f.Max {
			f.Max = v
		}
	}
}

// Params are the fractal layering knobs shared by every field.
type Params struct {
	Amplitude   float32
	Frequency   float32
	Octaves     int
	Persistence float32
	Lacunarity  float32

	// Dropoff scales 3D samples by their height above DropoffPlane so the
	// volume tends to be solid below and empty above.
	Dropoff      bool
	DropoffPlane float32
	DropoffSpan  float32
}

// TotalAmplitude is the sum of every octave's amplitude.
func (p Params) TotalAmplitude() float32 {
	total := float32(0)
	amp := p.Amplitude
	for i := 0; i < p.Octaves; i++ {
		total += amp
		amp *= p.Persistence
	}
	return total
}
