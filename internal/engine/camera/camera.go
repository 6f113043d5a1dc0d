// Package camera turns pointer and keyboard gestures into map camera moves.
package camera

import (
	gomath "math"
	"time"

	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/mapview"
)

// Target is the map whose camera is driven. *mapview.Map implements it.
type Target interface {
	Camera() mapview.Camera
	JumpTo(opts mapview.CameraOptions)
	FlyTo(opts mapview.CameraOptions)
	PanBy(dx, dy float64)
	ZoomAround(delta, x, y float64)
}

var _ Target = (*mapview.Map)(nil)

// MapCamera drives a map camera like an orbit camera around the map center:
// drag pans, secondary drag orbits (bearing and pitch), the wheel zooms
// around the pointer.
type MapCamera struct {
	target Target

	// Sensitivity
	RotateSensitivity float64 // degrees per pixel
	ZoomSensitivity   float64 // zoom levels per wheel step
	PanSpeed          float64 // pixels per second for keyboard movement

	FlyDuration time.Duration
}

// NewMapCamera creates a controller with default settings.
func NewMapCamera(t Target) *MapCamera {
	return &MapCamera{
		target:            t,
		RotateSensitivity: 0.3,
		ZoomSensitivity:   0.5,
		PanSpeed:          600,
		FlyDuration:       1500 * time.Millisecond,
	}
}

// HandleDrag moves the map content with the pointer.
func (c *MapCamera) HandleDrag(deltaX, deltaY float64) {
	if deltaX == 0 && deltaY == 0 {
		return
	}
	c.target.PanBy(deltaX, deltaY)
}

// HandleRotate orbits: horizontal motion turns the bearing, vertical motion
// tilts. The map clamps pitch to its supported range.
func (c *MapCamera) HandleRotate(deltaX, deltaY float64) {
	cam := c.target.Camera()
	bearing := normalizeBearing(cam.Bearing - deltaX*c.RotateSensitivity)
	pitch := cam.Pitch - deltaY*c.RotateSensitivity
	c.target.JumpTo(mapview.CameraOptions{Bearing: &bearing, Pitch: &pitch})
}

// HandleZoom zooms by wheel steps around the screen point (x, y).
func (c *MapCamera) HandleZoom(steps, x, y float64) {
	if steps == 0 {
		return
	}
	c.target.ZoomAround(steps*c.ZoomSensitivity, x, y)
}

// HandleMovement pans from keyboard input. forward moves the view towards
// the top of the screen, right towards its right edge.
func (c *MapCamera) HandleMovement(forward, right float64, dt time.Duration) {
	if forward == 0 && right == 0 {
		return
	}
	d := c.PanSpeed * dt.Seconds()
	c.target.PanBy(-right*d, forward*d)
}

// ResetNorth turns the map back to north-up and top-down.
func (c *MapCamera) ResetNorth() {
	zero := 0.0
	c.target.JumpTo(mapview.CameraOptions{Bearing: &zero, Pitch: &zero})
}

// CenterOn flies to a position, keeping the zoom when zoom is nil.
func (c *MapCamera) CenterOn(p geo.LngLat, zoom *float64) {
	c.target.FlyTo(mapview.CameraOptions{
		Center:   &p,
		Zoom:     zoom,
		Duration: c.FlyDuration,
	})
}

func normalizeBearing(b float64) float64 {
	b = gomath.Mod(b, 360)
	if b > 180 {
		b -= 360
	} else if b <= -180 {
		b += 360
	}
	return b
}
