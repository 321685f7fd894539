// Package texture turns height and color grids into images for upload or
// export.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/endless-terrain/internal/engine/noise"
	"github.com/Faultbox/endless-terrain/internal/engine/terrain"
)

// FromHeightmap renders a chunk's renderable area, dropping the border ring.
// Row 0 of the image is the chunk's first mesh row, matching mesh UV v=0.
// Maps without a color grid are rendered as grayscale heights.
func FromHeightmap(hm *terrain.Heightmap) *image.RGBA {
	w, h := hm.InteriorSize()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	b := terrain.BorderSize

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if hm.Colors != nil {
				img.SetRGBA(x, y, hm.ColorAt(x+b, y+b))
			} else {
				img.SetRGBA(x, y, gray(hm.At(x+b, y+b)))
			}
		}
	}
	return img
}

// FromField renders a noise field as grayscale, black at 0 and white at 1.
func FromField(f *noise.Field) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetRGBA(x, y, gray(f.At(x, y)))
		}
	}
	return img
}

// gray lerps black to white; values outside [0,1] saturate.
func gray(v float32) color.RGBA {
	switch {
	case v <= 0:
		v = 0
	case v >= 1:
		v = 1
	}
	l := uint8(v*255 + 0.5)
	return color.RGBA{R: l, G: l, B: l, A: 0xff}
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
