package mapview

import (
	"sync/atomic"
	"time"

	"github.com/Faultbox/greenmap/internal/geo"
)

// DefaultElementSize is the on-screen diameter of a marker element in pixels.
const DefaultElementSize = 40

// AppearDuration is how long an element fades in after AppearAt.
const AppearDuration = 300 * time.Millisecond

// HoverScale enlarges a hovered element.
const HoverScale = 1.1

// Element is an overlay anchored at a geographic position, drawn in screen
// space on top of the map.
type Element struct {
	ID          string
	Position    geo.LngLat
	Size        float64
	BorderColor [4]float32
	Badge       string
	Image       string
	AppearAt    time.Time

	// OnClick runs on the caller of Map.Click.
	OnClick func()
	// OnHover receives hover enter (true) and leave (false).
	OnHover func(hovered bool)

	hidden  atomic.Bool
	hovered atomic.Bool
}

// SetDisplay shows or hides the element. Hidden elements are neither drawn
// nor hit tested.
func (e *Element) SetDisplay(visible bool) {
	e.hidden.Store(!visible)
}

// Displayed reports whether the element is shown.
func (e *Element) Displayed() bool {
	return !e.hidden.Load()
}

// Hovered reports whether the pointer is over the element.
func (e *Element) Hovered() bool {
	return e.hovered.Load()
}

// Opacity returns the appear fade factor in [0,1] at now.
func (e *Element) Opacity(now time.Time) float64 {
	if e.AppearAt.IsZero() || !now.Before(e.AppearAt.Add(AppearDuration)) {
		return 1
	}
	if now.Before(e.AppearAt) {
		return 0
	}
	return float64(now.Sub(e.AppearAt)) / float64(AppearDuration)
}

// ScreenSize returns the drawn diameter, including hover scaling.
func (e *Element) ScreenSize() float64 {
	size := e.Size
	if size <= 0 {
		size = DefaultElementSize
	}
	if e.Hovered() {
		size *= HoverScale
	}
	return size
}

// Visible reports whether the element is displayed and has started
// appearing at now.
func (e *Element) Visible(now time.Time) bool {
	return e.Displayed() && !now.Before(e.AppearAt)
}
