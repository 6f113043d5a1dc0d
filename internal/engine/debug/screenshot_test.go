package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 30, 15, 250*int(time.Millisecond), time.UTC)
}

func TestFilename(t *testing.T) {
	s := NewScreenshots("shots", "map", fixedClock)
	assert.Equal(t, filepath.Join("shots", "map_2024-05-01_12-30-15.250.png"), s.Filename())

	s.SetOutputDir("")
	assert.Equal(t, "map_2024-05-01_12-30-15.250.png", s.Filename())
}

func TestFromPixelsFlipsRows(t *testing.T) {
	// Two rows: bottom row red, top row blue (GL order is bottom-up).
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FromPixels(pixels, 1, 2)
	require.NoError(t, err)

	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Zero(t, r)
	assert.NotZero(t, b)
	r, _, _, _ = img.At(0, 1).RGBA()
	assert.NotZero(t, r)
}

func TestFromPixelsRejectsBadInput(t *testing.T) {
	_, err := FromPixels(make([]byte, 3), 1, 1)
	assert.Error(t, err)
	_, err = FromPixels(nil, 0, 1)
	assert.Error(t, err)
}

func TestCaptureWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewScreenshots(dir, "", fixedClock)

	path, err := s.CaptureFromPixels(make([]byte, 4*3*2), 3, 2)
	require.NoError(t, err)
	assert.Equal(t, "greenmap_2024-05-01_12-30-15.250.png", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}
