package renderer

import (
	"strconv"
	"strings"
	"time"

	"github.com/Faultbox/greenmap/internal/mapview"
)

// ElementBorder is the border width of marker elements in pixels.
const ElementBorder = 3

// ElementQuad is the screen placement of a marker element, centered on X, Y.
type ElementQuad struct {
	X, Y    float32
	Size    float32
	Opacity float32
}

// PlaceElement positions e for the view at now. It reports false for
// hidden, not yet appearing or off-screen elements.
func PlaceElement(e *mapview.Element, v mapview.View, now time.Time) (ElementQuad, bool) {
	if !e.Visible(now) {
		return ElementQuad{}, false
	}
	x, y, ok := v.Project(e.Position)
	if !ok {
		return ElementQuad{}, false
	}
	size := e.ScreenSize()
	half := size / 2
	if x+half < 0 || y+half < 0 || x-half > v.Width || y-half > v.Height {
		return ElementQuad{}, false
	}
	return ElementQuad{
		X:       float32(x),
		Y:       float32(y),
		Size:    float32(size),
		Opacity: float32(e.Opacity(now)),
	}, true
}

// CountLabel abbreviates a cluster point count: 950, 1.2k, 12k.
func CountLabel(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 10000:
		s := strconv.FormatFloat(float64(n/100)/10, 'f', 1, 64)
		return strings.TrimSuffix(s, ".0") + "k"
	default:
		return strconv.Itoa(n/1000) + "k"
	}
}
