package app

import (
	"context"
	"time"

	"github.com/Faultbox/greenmap/internal/avatar"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/marker"
)

type fakeAvatar struct {
	state avatar.State
	clip  string
	calls []string
}

func (f *fakeAvatar) StartWalking() {
	f.calls = append(f.calls, "start")
	f.state = avatar.StateWalking
}

func (f *fakeAvatar) StopWalking() {
	f.calls = append(f.calls, "stop")
	f.state = avatar.StateBaseIdle
}

func (f *fakeAvatar) ReturnToBaseIdle() {
	f.calls = append(f.calls, "idle")
	f.state = avatar.StateBaseIdle
}

func (f *fakeAvatar) CurrentState() avatar.State   { return f.state }
func (f *fakeAvatar) CurrentAnimationName() string { return f.clip }

type fakeMarkers struct {
	clustering bool
	modeSets   int
	refreshes  []time.Duration
	all        []marker.Marker
}

func (f *fakeMarkers) SetClusteringMode(enabled bool) {
	f.modeSets++
	f.clustering = enabled
}

func (f *fakeMarkers) Clustering() bool               { return f.clustering }
func (f *fakeMarkers) Refresh(delay time.Duration)    { f.refreshes = append(f.refreshes, delay) }
func (f *fakeMarkers) GetAllMarkers() []marker.Marker { return f.all }

func (f *fakeMarkers) GetMarkersByType(kind marker.Kind) []marker.Marker {
	return marker.NewSet(f.all).ByKind(kind)
}

func (f *fakeMarkers) GetUserSubmissionStats(userID string) marker.SubmissionStats {
	return marker.NewSet(f.all).Stats(userID)
}

type fakeLocator struct {
	pos geo.LngLat
	err error
}

func (f fakeLocator) Current(context.Context) (geo.LngLat, error) { return f.pos, f.err }

type fakeCamera struct {
	centers []geo.LngLat
}

func (f *fakeCamera) CenterOn(p geo.LngLat, _ *float64) { f.centers = append(f.centers, p) }

type fakePositioner struct {
	pos geo.LngLat
}

func (f *fakePositioner) SetPosition(p geo.LngLat) error {
	if err := p.Validate(); err != nil {
		return err
	}
	f.pos = p
	return nil
}

type fakeCanvas struct {
	texts []string
}

func (f *fakeCanvas) DrawRect(_, _, _, _ float32, _ ui2d.Color)           {}
func (f *fakeCanvas) DrawRectOutline(_, _, _, _, _ float32, _ ui2d.Color) {}

func (f *fakeCanvas) DrawText(_, _ float32, text string, _ float32, _ ui2d.Color) {
	f.texts = append(f.texts, text)
}

func (f *fakeCanvas) MeasureText(text string, scale float32) (float32, float32) {
	return float32(len(text)*7) * scale, 13 * scale
}

// frame runs one HUD frame with the pointer at (x, y).
func frame(ui *ui2d.Context, x, y float32, down bool, draw func()) {
	in := ui.Input()
	in.MouseX, in.MouseY, in.MouseLeftDown = x, y, down
	ui.Begin()
	draw()
	ui.End()
}
