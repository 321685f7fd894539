// Package noise synthesizes the fractal height fields and falloff masks
// that terrain chunks are built from. Every function here is pure and safe
// to call from any number of goroutines.
package noise

// Field is a row-major 2D grid of samples.
type Field struct {
	Width  int
	Height int
	Values []float32
}

// NewField allocates a zeroed field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]float32, width*height),
	}
}

// At returns the sample at column x, row y.
func (f *Field) At(x, y int) float32 {
	return f.Values[y*f.Width+x]
}

// Set stores a sample at column x, row y.
func (f *Field) Set(x, y int, v float32) {
	f.Values[y*f.Width+x] = v
}

// MinMax returns the smallest and largest sample.
func (f *Field) MinMax() (lo, hi float32) {
	if len(f.Values) == 0 {
		return 0, 0
	}
	lo, hi = f.Values[0], f.Values[0]
	for _, v := range f.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
