package mapview

import (
	"fmt"
	"time"
)

// CustomLayer renders its own content into the map's GL context after the
// built-in layers. Render runs on the render thread only.
type CustomLayer interface {
	ID() string
	OnAdd(m *Map) error
	Update(dt time.Duration)
	Render(v View)
}

// Remover is implemented by custom layers that release resources on removal.
type Remover interface {
	OnRemove()
}

// AddCustomLayer registers a custom layer after calling its OnAdd hook.
func (m *Map) AddCustomLayer(l CustomLayer) error {
	if m.HasCustomLayer(l.ID()) {
		return fmt.Errorf("%w: %s", ErrLayerExists, l.ID())
	}
	if err := l.OnAdd(m); err != nil {
		return fmt.Errorf("custom layer %q: %w", l.ID(), err)
	}
	m.mu.Lock()
	m.custom = append(m.custom, l)
	m.mu.Unlock()
	return nil
}

// RemoveCustomLayer unregisters a custom layer.
func (m *Map) RemoveCustomLayer(id string) bool {
	m.mu.Lock()
	var removed CustomLayer
	for i, l := range m.custom {
		if l.ID() == id {
			removed = l
			m.custom = append(m.custom[:i:i], m.custom[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if removed == nil {
		return false
	}
	if r, ok := removed.(Remover); ok {
		r.OnRemove()
	}
	return true
}

// HasCustomLayer reports whether a custom layer is registered.
func (m *Map) HasCustomLayer(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.custom {
		if l.ID() == id {
			return true
		}
	}
	return false
}

// RenderCustomLayers calls Render on every custom layer in insertion order.
func (m *Map) RenderCustomLayers() {
	m.mu.RLock()
	custom := append([]CustomLayer(nil), m.custom...)
	v := newView(m.cam, m.width, m.height)
	m.mu.RUnlock()

	for _, l := range custom {
		l.Render(v)
	}
}
