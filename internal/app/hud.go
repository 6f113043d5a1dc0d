package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/avatar"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/marker"
)

const (
	panelWidth  = 240
	detailWidth = 300
	glyphWidth  = 7
)

var kindLabels = []struct {
	kind  marker.Kind
	label string
}{
	{marker.KindPlant, "Plants"},
	{marker.KindAnimal, "Animals"},
	{marker.KindLitter, "Litter"},
	{marker.KindCommunityEvent, "Events"},
}

// HUD draws the map panel and the selected marker panel.
type HUD struct {
	ui       *ui2d.Context
	controls *Controls
	// UserID selects whose submissions are counted; empty hides the line.
	UserID  string
	ShowFPS bool

	status string
}

// NewHUD creates a HUD drawing through ui.
func NewHUD(ui *ui2d.Context, controls *Controls) *HUD {
	return &HUD{ui: ui, controls: controls}
}

// SetStatus shows a one-line message at the bottom of the panel.
func (h *HUD) SetStatus(msg string) {
	h.status = msg
}

// Draw renders the HUD for one frame.
func (h *HUD) Draw(fps float64) {
	h.drawPanel(fps)
	h.drawSelection()
}

func (h *HUD) drawPanel(fps float64) {
	rows := 12
	if h.ShowFPS {
		rows++
	}
	height := float32(40 + rows*20)
	if !h.ui.BeginWindow("panel", 12, 12, panelWidth, height, "GreenMap") {
		return
	}
	defer h.ui.EndWindow()

	c := h.controls
	if c.Markers != nil {
		all := c.Markers.GetAllMarkers()
		h.ui.Row(14)
		h.ui.Label(fmt.Sprintf("Markers: %d", len(all)))
		for _, k := range kindLabels {
			h.ui.Row(14)
			h.ui.Swatch(ui2d.FromArray(marker.StyleFor(k.kind).BorderColor))
			h.ui.LabelColored(fmt.Sprintf("%-8s %d", k.label, len(c.Markers.GetMarkersByType(k.kind))), ui2d.ColorTextDim)
		}
		if h.UserID != "" {
			stats := c.Markers.GetUserSubmissionStats(h.UserID)
			h.ui.Row(14)
			h.ui.Label(fmt.Sprintf("Mine: %d", stats.Total))
		}

		h.ui.Row(16)
		clustering := c.Markers.Clustering()
		if next := h.ui.Checkbox("clustering", "Clustering (C)", clustering); next != clustering {
			c.SetClustering(next)
		}
		h.ui.Row(22)
		if h.ui.Button("refresh", 108, "Refresh (R)") {
			c.Refresh()
			h.SetStatus("Refreshing markers")
		}
		if h.ui.Button("locate", 108, "Locate (L)") {
			h.locate()
		}
	}

	h.ui.Separator()
	if c.Avatar != nil {
		h.ui.Row(14)
		h.ui.Label("Avatar: " + string(c.Avatar.CurrentState()))
		h.ui.Row(14)
		h.ui.LabelColored("Clip: "+c.Avatar.CurrentAnimationName(), ui2d.ColorTextDim)
		h.ui.Row(22)
		walkLabel := "Walk (W)"
		if c.Avatar.CurrentState() == avatar.StateWalking {
			walkLabel = "Stop (W)"
		}
		if h.ui.Button("walk", 108, walkLabel) {
			c.ToggleWalking()
		}
		if h.ui.Button("idle", 108, "Idle (I)") {
			c.ReturnToIdle()
		}
	} else {
		h.ui.Row(14)
		h.ui.LabelColored("Avatar unavailable", ui2d.ColorTextDim)
	}

	if h.ShowFPS {
		h.ui.Row(14)
		h.ui.LabelColored(fmt.Sprintf("%.0f FPS", fps), ui2d.ColorTextDim)
	}
	if h.status != "" {
		h.ui.Row(14)
		h.ui.LabelColored(h.status, ui2d.ColorHighlight)
	}
}

func (h *HUD) locate() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pos, err := h.controls.Locate(ctx)
	if err != nil {
		h.SetStatus("Location unavailable")
		h.controls.logger().Warn("locate failed", zap.Error(err))
		return
	}
	h.SetStatus(fmt.Sprintf("At %.4f, %.4f", pos.Lat, pos.Lng))
}

func (h *HUD) drawSelection() {
	m, ok := h.controls.Selected()
	if !ok {
		return
	}
	lines := wrap(marker.Summary(m), (detailWidth-16)/glyphWidth)
	if m.CreatedByID != "" {
		lines = append(lines, "By "+m.CreatedByID)
	}

	_, sh := h.ui.ScreenSize()
	height := float32(25 + 16 + len(lines)*18 + 30)
	title := m.Name
	if title == "" {
		title = m.ID
	}
	if !h.ui.BeginWindow("selection", 12, sh-height-12, detailWidth, height, title) {
		return
	}
	defer h.ui.EndWindow()

	color := ui2d.FromArray(marker.StyleFor(m.Kind()).BorderColor)
	for i, line := range lines {
		h.ui.Row(14)
		if i == 0 {
			h.ui.Swatch(color)
		}
		h.ui.Label(line)
	}
	h.ui.Row(22)
	if h.ui.Button("close", 80, "Close") {
		h.controls.ClearSelection()
	}
}

// wrap breaks text into lines of at most width characters at spaces.
// Words longer than width are split.
func wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		for len(word) > width {
			if line.Len() > 0 {
				lines = append(lines, line.String())
				line.Reset()
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= width:
			line.WriteByte(' ')
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
