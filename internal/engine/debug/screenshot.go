// Package debug holds developer tooling for the map client.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/logger"
)

// Screenshots writes frame captures as PNG files.
type Screenshots struct {
	outputDir string
	prefix    string
	now       func() time.Time
	log       *zap.Logger
}

// NewScreenshots creates a capture handler writing into outputDir.
// now may be nil to use the wall clock.
func NewScreenshots(outputDir, prefix string, now func() time.Time) *Screenshots {
	if now == nil {
		now = time.Now
	}
	if prefix == "" {
		prefix = "greenmap"
	}
	return &Screenshots{
		outputDir: outputDir,
		prefix:    prefix,
		now:       now,
		log:       logger.Named("debug"),
	}
}

// SetOutputDir sets the output directory for screenshots.
func (s *Screenshots) SetOutputDir(dir string) {
	s.outputDir = dir
}

// Filename returns the path the next capture would be written to.
func (s *Screenshots) Filename() string {
	name := fmt.Sprintf("%s_%s.png", s.prefix, s.now().Format("2006-01-02_15-04-05.000"))
	if s.outputDir != "" {
		name = filepath.Join(s.outputDir, name)
	}
	return name
}

// FromPixels converts bottom-up RGBA pixels, as returned by glReadPixels,
// into a top-down image.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// CaptureFromPixels saves a raw GL framebuffer read.
func (s *Screenshots) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}
	return s.Capture(img)
}

// Capture saves img and returns the written path.
func (s *Screenshots) Capture(img image.Image) (string, error) {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := s.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}

	s.log.Info("screenshot saved", zap.String("path", filename), zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return filename, nil
}
