// Package debug provides viewer diagnostics.
package debug

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/Faultbox/endless-terrain/internal/engine/texture"
)

// ScreenshotCapture writes framebuffer captures as timestamped PNG files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// CaptureFromPixels saves bottom-up RGBA rows, as read back from OpenGL,
// and returns the file name.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRows(pixels, width, height)
	if err != nil {
		return "", err
	}

	filename := sc.filename()
	if err := texture.WritePNG(filename, img); err != nil {
		return "", err
	}
	return filename, nil
}

func (sc *ScreenshotCapture) filename() string {
	name := fmt.Sprintf("%s_%s.png", sc.prefix, sc.now().Format("2006-01-02_15-04-05.000"))
	return filepath.Join(sc.outputDir, name)
}

// FlipRows converts bottom-up RGBA rows into a top-down image.
func FlipRows(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}
