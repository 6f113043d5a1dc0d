package camera

import (
	gomath "math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/mapview"
)

var london = geo.LngLat{Lng: -0.1276, Lat: 51.5072}

func newMap() *mapview.Map {
	return mapview.New(mapview.Options{
		Camera: mapview.Camera{Center: london, Zoom: 15},
		Width:  800,
		Height: 600,
		Logger: zap.NewNop(),
	})
}

func TestHandleDragMovesContent(t *testing.T) {
	m := newMap()
	c := NewMapCamera(m)

	// Dragging the content right reveals what lies west.
	c.HandleDrag(100, 0)
	if got := m.Camera().Center; got.Lng >= london.Lng {
		t.Errorf("center lng = %v, want < %v", got.Lng, london.Lng)
	}

	// Dragging down reveals what lies north.
	m.SetCenter(london)
	c.HandleDrag(0, 100)
	if got := m.Camera().Center; got.Lat <= london.Lat {
		t.Errorf("center lat = %v, want > %v", got.Lat, london.Lat)
	}
}

func TestHandleRotate(t *testing.T) {
	m := newMap()
	c := NewMapCamera(m)

	c.HandleRotate(-100, -100)
	cam := m.Camera()
	if gomath.Abs(cam.Bearing-30) > 1e-9 {
		t.Errorf("bearing = %v, want 30", cam.Bearing)
	}
	if gomath.Abs(cam.Pitch-30) > 1e-9 {
		t.Errorf("pitch = %v, want 30", cam.Pitch)
	}

	c.HandleRotate(0, -1000)
	if got := m.Camera().Pitch; got != mapview.MaxPitch {
		t.Errorf("pitch = %v, want clamped to %v", got, mapview.MaxPitch)
	}

	c.ResetNorth()
	if cam := m.Camera(); cam.Bearing != 0 || cam.Pitch != 0 {
		t.Errorf("after ResetNorth bearing=%v pitch=%v", cam.Bearing, cam.Pitch)
	}
}

func TestNormalizeBearing(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{190, -170},
		{-190, 170},
		{360, 0},
		{180, 180},
		{-180, 180},
	}
	for _, tt := range tests {
		if got := normalizeBearing(tt.in); gomath.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeBearing(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHandleZoom(t *testing.T) {
	m := newMap()
	c := NewMapCamera(m)

	c.HandleZoom(2, 400, 300)
	if got := m.Zoom(); gomath.Abs(got-16) > 1e-9 {
		t.Errorf("zoom = %v, want 16", got)
	}
	c.HandleZoom(0, 400, 300)
	if got := m.Zoom(); gomath.Abs(got-16) > 1e-9 {
		t.Errorf("zero steps changed zoom to %v", got)
	}
}

func TestHandleMovement(t *testing.T) {
	m := newMap()
	c := NewMapCamera(m)

	c.HandleMovement(1, 0, 100*time.Millisecond)
	if got := m.Camera().Center; got.Lat <= london.Lat {
		t.Errorf("forward should move north, lat = %v", got.Lat)
	}

	m.SetCenter(london)
	c.HandleMovement(0, 1, 100*time.Millisecond)
	if got := m.Camera().Center; got.Lng <= london.Lng {
		t.Errorf("right should move east, lng = %v", got.Lng)
	}
}

func TestCenterOn(t *testing.T) {
	m := newMap()
	c := NewMapCamera(m)
	paris := geo.LngLat{Lng: 2.3522, Lat: 48.8566}
	zoom := 12.0

	c.CenterOn(paris, &zoom)
	if !m.Animating() {
		t.Fatal("CenterOn should animate")
	}
	m.Update(c.FlyDuration)

	cam := m.Camera()
	if gomath.Abs(cam.Center.Lng-paris.Lng) > 1e-9 || gomath.Abs(cam.Center.Lat-paris.Lat) > 1e-9 {
		t.Errorf("center = %v, want %v", cam.Center, paris)
	}
	if cam.Zoom != 12 {
		t.Errorf("zoom = %v, want 12", cam.Zoom)
	}
}
