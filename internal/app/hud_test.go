package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/avatar"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/marker"
)

func testMarkers() []marker.Marker {
	return []marker.Marker{
		{ID: "plant-1", Name: "Oak", CreatedByID: "u1", Details: marker.Plant{PlantRecord: api.PlantRecord{Name: "Oak"}}},
		{ID: "animal-1", CreatedByID: "u2", Details: marker.Animal{AnimalRecord: api.AnimalRecord{Species: "Fox"}}},
		{ID: "litter-1", CreatedByID: "u1", Details: marker.Litter{LitterRecord: api.LitterRecord{LitterType: "bottle"}}},
	}
}

func newTestHUD() (*HUD, *ui2d.Context, *fakeCanvas, *fakeMarkers, *fakeAvatar) {
	canvas := &fakeCanvas{}
	ui := ui2d.NewContext(canvas, 800, 600)
	fm := &fakeMarkers{clustering: true, all: testMarkers()}
	av := &fakeAvatar{state: avatar.StateBaseIdle, clip: "idle"}
	c := &Controls{
		Markers: fm,
		Avatar:  av,
		Locator: fakeLocator{pos: geo.LngLat{Lng: 13.4, Lat: 52.5}},
		Camera:  &fakeCamera{},
	}
	return NewHUD(ui, c), ui, canvas, fm, av
}

// click presses and releases the left button at (x, y).
func click(ui *ui2d.Context, x, y float32, draw func()) {
	frame(ui, x, y, false, draw)
	frame(ui, x, y, true, draw)
	frame(ui, x, y, false, draw)
}

func TestHUDShowsCounts(t *testing.T) {
	hud, ui, canvas, _, _ := newTestHUD()
	hud.UserID = "u1"
	frame(ui, 0, 0, false, func() { hud.Draw(60) })

	text := strings.Join(canvas.texts, "|")
	assert.Contains(t, text, "Markers: 3")
	assert.Contains(t, text, "Plants   1")
	assert.Contains(t, text, "Events   0")
	assert.Contains(t, text, "Mine: 2")
	assert.Contains(t, text, "Avatar: base_idle")
	assert.Contains(t, text, "Clip: idle")
	assert.NotContains(t, text, "FPS")
}

func TestHUDShowsFPS(t *testing.T) {
	hud, ui, canvas, _, _ := newTestHUD()
	hud.ShowFPS = true
	frame(ui, 0, 0, false, func() { hud.Draw(59.6) })
	assert.Contains(t, canvas.texts, "60 FPS")
}

func TestHUDRefreshButton(t *testing.T) {
	hud, ui, canvas, fm, _ := newTestHUD()
	draw := func() { hud.Draw(0) }

	click(ui, 50, 170, draw)
	assert.Len(t, fm.refreshes, 1)
	assert.Contains(t, canvas.texts, "Refreshing markers")
}

func TestHUDLocateButton(t *testing.T) {
	hud, ui, canvas, _, _ := newTestHUD()
	draw := func() { hud.Draw(0) }

	click(ui, 150, 170, draw)
	assert.Contains(t, canvas.texts, "At 52.5000, 13.4000")
}

func TestHUDWalkButton(t *testing.T) {
	hud, ui, canvas, _, av := newTestHUD()
	draw := func() { hud.Draw(0) }

	click(ui, 50, 240, draw)
	assert.Equal(t, []string{"start"}, av.calls)
	assert.Contains(t, canvas.texts, "Stop (W)")
}

func TestHUDWithoutAvatar(t *testing.T) {
	hud, ui, canvas, _, _ := newTestHUD()
	hud.controls.Avatar = nil
	frame(ui, 0, 0, false, func() { hud.Draw(0) })
	assert.Contains(t, canvas.texts, "Avatar unavailable")
}

func TestHUDSelectionPanel(t *testing.T) {
	hud, ui, canvas, _, _ := newTestHUD()
	draw := func() { hud.Draw(0) }

	frame(ui, 0, 0, false, draw)
	assert.NotContains(t, canvas.texts, "Close")

	m := testMarkers()[2]
	m.Position = geo.LngLat{Lng: 13.4, Lat: 52.5}
	hud.controls.Select(m)
	canvas.texts = nil
	frame(ui, 0, 0, false, draw)

	summary := marker.Summary(m)
	var shown []string
	for _, line := range wrap(summary, (detailWidth-16)/glyphWidth) {
		require.Contains(t, canvas.texts, line)
		shown = append(shown, line)
	}
	assert.Equal(t, summary, strings.Join(shown, " "))
	assert.Contains(t, canvas.texts, "litter-1")
	assert.Contains(t, canvas.texts, "By u1")

	click(ui, 40, 565, draw)
	_, ok := hud.controls.Selected()
	assert.False(t, ok, "close button did not clear the selection")
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"a  b", 10, []string{"a b"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"x abcdefgh", 4, []string{"x", "abcd", "efgh"}},
		{"keep", 0, []string{"keep"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wrap(tt.text, tt.width), "wrap(%q, %d)", tt.text, tt.width)
	}
}

func TestHUDClusteringCheckbox(t *testing.T) {
	hud, ui, _, fm, _ := newTestHUD()
	draw := func() { hud.Draw(0) }

	click(ui, 25, 145, draw)
	assert.False(t, fm.clustering)
	assert.Equal(t, 1, fm.modeSets)
}
