package mapview

import (
	"time"
)

// elementAt returns the front-most visible element under (x, y).
func (m *Map) elementAt(v View, x, y float64, now time.Time) *Element {
	elements := m.Elements()
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		if !e.Visible(now) {
			continue
		}
		ex, ey, ok := v.Project(e.Position)
		if !ok {
			continue
		}
		r := e.ScreenSize() / 2
		dx, dy := ex-x, ey-y
		if dx*dx+dy*dy <= r*r {
			return e
		}
	}
	return nil
}

// Click dispatches a click at (x, y): the front-most element's handler
// first, otherwise the top-most layer with a click handler and a feature
// under the point. Reports whether anything handled the click.
func (m *Map) Click(x, y float64) bool {
	v := m.View()
	if e := m.elementAt(v, x, y, m.now()); e != nil {
		if e.OnClick != nil {
			e.OnClick()
		}
		return true
	}

	for _, l := range reversed(m.Layers()) {
		if l.OnClick == nil {
			continue
		}
		hits := m.QueryRenderedFeatures(x, y, l.ID)
		if len(hits) == 0 {
			continue
		}
		l.OnClick(hits[0])
		return true
	}
	return false
}

// Hover updates the hovered element for a pointer at (x, y).
func (m *Map) Hover(x, y float64) {
	target := m.elementAt(m.View(), x, y, m.now())

	m.mu.Lock()
	prev := m.hovered
	m.hovered = target
	m.mu.Unlock()

	if prev == target {
		return
	}
	if prev != nil {
		prev.hovered.Store(false)
		if prev.OnHover != nil {
			prev.OnHover(false)
		}
	}
	if target != nil {
		target.hovered.Store(true)
		if target.OnHover != nil {
			target.OnHover(true)
		}
	}
}
