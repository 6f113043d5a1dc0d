package renderer

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/mapview"
)

func TestCountLabel(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{2, "2"},
		{999, "999"},
		{1000, "1k"},
		{1250, "1.2k"},
		{9999, "9.9k"},
		{12500, "12k"},
	}
	for _, tt := range tests {
		if got := CountLabel(tt.n); got != tt.want {
			t.Errorf("CountLabel(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPlaceElement(t *testing.T) {
	center := geo.LngLat{Lng: -0.1276, Lat: 51.5072}
	m := mapview.New(mapview.Options{
		Camera: mapview.Camera{Center: center, Zoom: 15},
		Width:  800,
		Height: 600,
		Logger: zap.NewNop(),
	})
	v := m.View()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	e := &mapview.Element{ID: "plant-1", Position: center, AppearAt: now}
	q, ok := PlaceElement(e, v, now.Add(mapview.AppearDuration/2))
	if !ok {
		t.Fatal("element at the center should be placed")
	}
	if q.X < 399 || q.X > 401 || q.Y < 299 || q.Y > 301 {
		t.Errorf("element placed at (%v, %v), want the viewport center", q.X, q.Y)
	}
	if q.Size != mapview.DefaultElementSize {
		t.Errorf("size = %v", q.Size)
	}
	if q.Opacity < 0.49 || q.Opacity > 0.51 {
		t.Errorf("opacity halfway through the fade = %v", q.Opacity)
	}

	if _, ok := PlaceElement(e, v, now.Add(-time.Millisecond)); ok {
		t.Error("element should not be placed before it appears")
	}

	e.SetDisplay(false)
	if _, ok := PlaceElement(e, v, now); ok {
		t.Error("hidden element should not be placed")
	}
	e.SetDisplay(true)

	far := &mapview.Element{ID: "far", Position: geo.LngLat{Lng: 100, Lat: 10}}
	if _, ok := PlaceElement(far, v, now); ok {
		t.Error("off-screen element should be culled")
	}
}
