package mapview

import (
	gomath "math"
	"time"

	"github.com/Faultbox/greenmap/internal/geo"
)

// Easing maps animation progress in [0,1] to eased progress.
type Easing func(t float64) float64

// EaseInOutCubic is the default camera easing.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	f := 2*t - 2
	return 0.5*f*f*f + 1
}

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// CameraOptions describes a camera target. Nil fields keep their value.
type CameraOptions struct {
	Center   *geo.LngLat
	Zoom     *float64
	Pitch    *float64
	Bearing  *float64
	Duration time.Duration
	Easing   Easing
}

func (o CameraOptions) apply(c Camera) Camera {
	if o.Center != nil {
		c.Center = *o.Center
	}
	if o.Zoom != nil {
		c.Zoom = *o.Zoom
	}
	if o.Pitch != nil {
		c.Pitch = *o.Pitch
	}
	if o.Bearing != nil {
		c.Bearing = *o.Bearing
	}
	return c
}

type animation struct {
	from, to Camera
	elapsed  time.Duration
	duration time.Duration
	easing   Easing
	// zoomDip zooms out mid-flight, in zoom levels.
	zoomDip float64
}

func (a *animation) at(t float64) Camera {
	k := a.easing(t)
	from := geo.FromLngLat(a.from.Center, 0)
	to := geo.FromLngLat(a.to.Center, 0)
	center := geo.MercatorCoordinate{
		X: from.X + (to.X-from.X)*k,
		Y: from.Y + (to.Y-from.Y)*k,
	}
	return Camera{
		Center:  center.LngLat(),
		Zoom:    a.from.Zoom + (a.to.Zoom-a.from.Zoom)*k - a.zoomDip*gomath.Sin(gomath.Pi*k),
		Pitch:   a.from.Pitch + (a.to.Pitch-a.from.Pitch)*k,
		Bearing: a.from.Bearing + shortestAngle(a.from.Bearing, a.to.Bearing)*k,
	}
}

func shortestAngle(from, to float64) float64 {
	d := gomath.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// EaseTo animates the camera to opts over opts.Duration. A zero duration
// jumps immediately.
func (m *Map) EaseTo(opts CameraOptions) {
	m.startAnimation(opts, false)
}

// FlyTo animates like EaseTo, zooming out mid-flight in proportion to the
// distance travelled.
func (m *Map) FlyTo(opts CameraOptions) {
	m.startAnimation(opts, true)
}

func (m *Map) startAnimation(opts CameraOptions, fly bool) {
	if opts.Duration <= 0 {
		m.JumpTo(opts)
		return
	}
	if opts.Easing == nil {
		opts.Easing = EaseInOutCubic
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a := &animation{
		from:     m.cam,
		to:       m.constrain(opts.apply(m.cam)),
		duration: opts.Duration,
		easing:   opts.Easing,
	}
	if fly && m.width > 0 {
		from := geo.FromLngLat(a.from.Center, 0)
		to := geo.FromLngLat(a.to.Center, 0)
		pixels := gomath.Hypot(to.X-from.X, to.Y-from.Y) * a.from.WorldSize()
		a.zoomDip = gomath.Min(2, pixels/m.width)
	}
	m.anim = a
}

// Animating reports whether a camera animation is in progress.
func (m *Map) Animating() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.anim != nil
}

// Update advances camera animations by dt and then updates custom layers.
func (m *Map) Update(dt time.Duration) {
	var events []Event
	done := false

	m.mu.Lock()
	if a := m.anim; a != nil {
		a.elapsed += dt
		t := 1.0
		if a.elapsed < a.duration {
			t = float64(a.elapsed) / float64(a.duration)
		}
		prev := m.cam
		if t >= 1 {
			m.cam = a.to
			m.anim = nil
			done = true
		} else {
			m.cam = m.constrain(a.at(t))
		}
		events = cameraEvents(prev, m.cam)
	}
	custom := append([]CustomLayer(nil), m.custom...)
	m.mu.Unlock()

	m.emit(events...)
	if done {
		m.emit(EventMoveEnd)
	}
	for _, l := range custom {
		l.Update(dt)
	}
}
