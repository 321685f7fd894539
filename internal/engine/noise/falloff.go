package noise

import "math"

// Falloff shape constants.
const (
	falloffA = 3.0
	falloffB = 2.2
)

// Falloff builds a size×size radial mask: zero-ish in the middle and rising
// to one at the edges. Subtracting it from a height field yields an island.
func Falloff(size int) *Field {
	field := NewField(size, size)
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			x := float64(i)/float64(size)*2 - 1
			y := float64(j)/float64(size)*2 - 1
			v := math.Max(math.Abs(x), math.Abs(y))
			field.Set(i, j, float32(evaluateFalloff(v)))
		}
	}
	return field
}

func evaluateFalloff(v float64) float64 {
	a := math.Pow(v, falloffA)
	return a / (a + math.Pow(falloffB-falloffB*v, falloffA))
}
