package terrain

import (
	"image/color"

	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/pkg/math"
)

// Settings configure heightmap assembly for every chunk of a world.
type Settings struct {
	// Resolution is the number of renderable vertices along a chunk edge.
	// Chunks are Resolution-1 world units wide.
	Resolution int

	// Noise supplies seed, scale, octaves, persistence, lacunarity, the global
	// offset and the normalization mode. Width, Height are overwritten.
	Noise noise.Params

	// UseFalloff subtracts a radial mask so each chunk becomes an island.
	UseFalloff bool

	// Regions classify heights into colors. Empty disables the color grid.
	Regions []Region
}

// Assembler produces bordered heightmaps. It holds no mutable state after
// construction, so Generate may run on many goroutines at once.
type Assembler struct {
	settings Settings
	size     int
	falloff  *noise.Field
}

// NewAssembler prepares an assembler, caching the falloff mask if enabled.
func NewAssembler(s Settings) *Assembler {
	a := &Assembler{
		settings: s,
		size:     s.Resolution + 2*BorderSize,
	}
	a.settings.Regions = append([]Region(nil), s.Regions...)
	if s.UseFalloff {
		a.falloff = noise.Falloff(a.size)
	}
	return a
}

// ChunkSize returns the world-space width of one chunk.
func (a *Assembler) ChunkSize() float32 {
	return float32(a.settings.Resolution - 1)
}

// Settings returns the assembler's configuration.
func (a *Assembler) Settings() Settings {
	return a.settings
}

// Generate builds the heightmap for a chunk centered at center (world X, Z).
func (a *Assembler) Generate(center math.Vec2) *Heightmap {
	p := a.settings.Noise
	p.Width = a.size
	p.Height = a.size
	// Mesh rows advance toward -Z, so the row offset is mirrored to keep
	// neighbouring chunks sampling one continuous field.
	p.Offset = math.Vec2{
		X: p.Offset.X + center.X,
		Y: p.Offset.Y - center.Y,
	}

	field := noise.Generate(p)

	hm := &Heightmap{
		Width:  field.Width,
		Height: field.Height,
		Values: field.Values,
		Center: center,
	}

	if a.falloff != nil {
		for i, v := range hm.Values {
			hm.Values[i] = clampf(v-a.falloff.Values[i], 0, 1)
		}
	}

	if len(a.settings.Regions) > 0 {
		hm.Colors = classify(hm.Values, a.settings.Regions)
	}

	return hm
}

func classify(values []float32, regions []Region) []color.RGBA {
	top := regions[len(regions)-1].Color
	colors := make([]color.RGBA, len(values))
	for i, v := range values {
		colors[i] = top
		for _, r := range regions {
			if v <= r.Height {
				colors[i] = r.Color
				break
			}
		}
	}
	return colors
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
