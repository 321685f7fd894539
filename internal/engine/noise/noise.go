package noise

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	gm "github.com/Faultbox/endless-terrain/pkg/math"
)

const (
	// MinScale replaces non-positive scales.
	MinScale = 0.0001

	// octaveOffsetRange bounds the random per-octave sample offsets.
	octaveOffsetRange = 100000

	// permutationSeed fixes the gradient table. The world seed only moves
	// the sample window so two seeds never change the character of the noise.
	permutationSeed = 0

	// latticePeriod is the repeat length of go-perlin's gradient table.
	latticePeriod = 256
)

// gradient is read-only after construction and shared by all callers.
var gradient = perlin.NewPerlin(2, 2, 1, permutationSeed)

// Params describes one noise field request.
type Params struct {
	Width       int
	Height      int
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      gm.Vec2
	Mode        Mode
}

// Generate synthesizes a multi-octave gradient noise field.
//
// The seed only picks per-octave sample offsets, so the same parameters always
// reproduce the same field bit for bit.
func Generate(p Params) *Field {
	field := NewField(p.Width, p.Height)
	if p.Width <= 0 || p.Height <= 0 {
		return field
	}
	if p.Octaves <= 0 {
		return field
	}

	scale := p.Scale
	if scale <= 0 {
		scale = MinScale
	}

	rng := rand.New(rand.NewSource(p.Seed))
	offsets := make([][2]float64, p.Octaves)
	maxPossible := 0.0
	amplitude := 1.0
	for i := range offsets {
		offsets[i][0] = float64(rng.Intn(2*octaveOffsetRange)-octaveOffsetRange) + float64(p.Offset.X)
		offsets[i][1] = float64(rng.Intn(2*octaveOffsetRange)-octaveOffsetRange) + float64(p.Offset.Y)
		maxPossible += amplitude
		amplitude *= p.Persistence
	}

	halfWidth := float64(p.Width) / 2
	halfHeight := float64(p.Height) / 2

	raw := make([]float64, p.Width*p.Height)
	lo, hi := math.Inf(1), math.Inf(-1)

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			amplitude := 1.0
			frequency := 1.0
			height := 0.0

			for i := range offsets {
				sx := (float64(x) - halfWidth + offsets[i][0]) / scale * frequency
				sy := (float64(y) - halfHeight + offsets[i][1]) / scale * frequency
				height += gradient.Noise2D(wrapLattice(sx), wrapLattice(sy)) * amplitude

				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}

			raw[y*p.Width+x] = height
			lo = math.Min(lo, height)
			hi = math.Max(hi, height)
		}
	}

	normalize(field, raw, p.Mode, lo, hi, maxPossible)
	return field
}

// wrapLattice reduces a sample coordinate into [0, latticePeriod). go-perlin
// indexes its table with a truncated integer, which only holds for small
// non-negative coordinates. The noise repeats every period, so the result
// is unchanged.
func wrapLattice(s float64) float64 {
	s = math.Mod(s, latticePeriod)
	if s < 0 {
		s += latticePeriod
	}
	return s
}

func normalize(field *Field, raw []float64, mode Mode, lo, hi, maxPossible float64) {
	switch mode {
	case Global, GlobalCompressed:
		if maxPossible == 0 {
			return
		}
		divisor := maxPossible / 0.9
		if mode == GlobalCompressed {
			divisor = 2 * maxPossible / 1.75
		}
		for i, v := range raw {
			field.Values[i] = float32((v + 1) / divisor)
		}
	default:
		span := hi - lo
		if span == 0 {
			return
		}
		for i, v := range raw {
			field.Values[i] = float32((v - lo) / span)
		}
	}
}
