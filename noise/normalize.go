package noise

type Range int

const (
	Unit   Range = iota // [0, 1]
	Signed              // [-1, 1]
)

func (r Range) bounds() (float32, float32) {
	if r == Signed {
		return -1, 1
	}
	return 0, 1
}

// NormalizeField rescales f in place from its tracked Min and Max onto r.
// A constant field maps to the lower bound of r.
func NormalizeField(f *Field, r Range) {
	lo, hi := r.bounds()
	span := f.Max - f.Min
	if span <= 0 {
		for i := range f.Values {
			f.Values[i] = lo
		}
		f.Min, f.Max = lo, lo
		return
	}
	scale := (hi - lo) / span
	for i, v := range f.Values {
		n := lo + (v-f.Min)*scale
		if n > hi {
			n = hi
		}
		f.Values[i] = n
	}
	f.Track()
}
