// Package mapview is the map host: camera state and projection, screen-space
// overlay elements, clustered point sources with styled layers, hit testing,
// camera animations and custom render layers. It holds no GL state; the
// engine renderer draws from the snapshots it exposes.
package mapview

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/cluster"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/logger"
)

var (
	// ErrNotLoaded is returned when sources or layers are added before the
	// style has finished loading.
	ErrNotLoaded = errors.New("map style is not loaded")
	// ErrSourceExists is returned when adding a source id twice.
	ErrSourceExists = errors.New("source already exists")
	// ErrUnknownSource is returned for missing source ids.
	ErrUnknownSource = errors.New("unknown source")
	// ErrSourceInUse is returned when removing a source that layers still draw.
	ErrSourceInUse = errors.New("source is used by a layer")
	// ErrLayerExists is returned when adding a layer id twice.
	ErrLayerExists = errors.New("layer already exists")
)

// Event names emitted by the map.
type Event string

const (
	EventLoad    Event = "load"
	EventMove    Event = "move"
	EventZoom    Event = "zoom"
	EventMoveEnd Event = "moveend"
)

// Options configures a Map.
type Options struct {
	Camera  Camera
	Width   float64
	Height  float64
	MinZoom float64
	MaxZoom float64
	Now     func() time.Time
	Logger  *zap.Logger
}

type listener struct {
	id int
	fn func()
}

// Map is safe for concurrent use. Handlers and listeners are invoked
// without internal locks held.
type Map struct {
	mu  sync.RWMutex
	log *zap.Logger
	now func() time.Time

	cam     Camera
	width   float64
	height  float64
	minZoom float64
	maxZoom float64
	loaded  bool

	elements []*Element
	sources  map[string]*cluster.Index
	layers   []*Layer
	custom   []CustomLayer
	anim     *animation
	hovered  *Element

	listeners    map[Event][]listener
	nextListener int
}

// New creates a map with the given camera and viewport.
func New(opts Options) *Map {
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 22
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("mapview")
	}
	m := &Map{
		log:       opts.Logger,
		now:       opts.Now,
		width:     opts.Width,
		height:    opts.Height,
		minZoom:   opts.MinZoom,
		maxZoom:   opts.MaxZoom,
		sources:   make(map[string]*cluster.Index),
		listeners: make(map[Event][]listener),
	}
	m.cam = m.constrain(opts.Camera)
	return m
}

// Now returns the map clock's current time.
func (m *Map) Now() time.Time {
	return m.now()
}

func (m *Map) constrain(c Camera) Camera {
	c.Zoom = gomath.Max(m.minZoom, gomath.Min(m.maxZoom, c.Zoom))
	c.Pitch = gomath.Max(0, gomath.Min(MaxPitch, c.Pitch))
	c.Bearing = gomath.Mod(c.Bearing, 360)
	c.Center.Lat = gomath.Max(-geo.MaxMercatorLat, gomath.Min(geo.MaxMercatorLat, c.Center.Lat))
	if c.Center.Lng > 180 || c.Center.Lng < -180 {
		c.Center.Lng = gomath.Mod(gomath.Mod(c.Center.Lng+180, 360)+360, 360) - 180
	}
	return c
}

// Camera returns the current camera state.
func (m *Map) Camera() Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cam
}

// Zoom returns the current zoom level.
func (m *Map) Zoom() float64 {
	return m.Camera().Zoom
}

// View returns a snapshot for projection and rendering.
func (m *Map) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newView(m.cam, m.width, m.height)
}

// Size returns the viewport size in pixels.
func (m *Map) Size() (width, height float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}

// Resize updates the viewport size.
func (m *Map) Resize(width, height float64) {
	m.mu.Lock()
	m.width, m.height = width, height
	m.mu.Unlock()
	m.emit(EventMove)
}

// Project converts a geographic position to screen pixels.
func (m *Map) Project(p geo.LngLat) (x, y float64, ok bool) {
	return m.View().Project(p)
}

// Unproject converts screen pixels to a geographic position on the ground.
func (m *Map) Unproject(x, y float64) (geo.LngLat, bool) {
	return m.View().Unproject(x, y)
}

// JumpTo applies camera options immediately, cancelling any animation.
func (m *Map) JumpTo(opts CameraOptions) {
	m.mu.Lock()
	m.anim = nil
	prev := m.cam
	m.cam = m.constrain(opts.apply(m.cam))
	events := cameraEvents(prev, m.cam)
	m.mu.Unlock()
	m.emit(events...)
	m.emit(EventMoveEnd)
}

// SetZoom sets the zoom level, clamped to the map's range.
func (m *Map) SetZoom(zoom float64) {
	m.JumpTo(CameraOptions{Zoom: &zoom})
}

// SetCenter recenters the camera.
func (m *Map) SetCenter(center geo.LngLat) {
	m.JumpTo(CameraOptions{Center: &center})
}

// PanBy moves the map content by (dx, dy) screen pixels.
func (m *Map) PanBy(dx, dy float64) {
	v := m.View()
	center, ok := v.Unproject(v.Width/2-dx, v.Height/2-dy)
	if !ok {
		return
	}
	m.SetCenter(center)
}

// ZoomAround changes zoom by delta keeping the ground point under (x, y)
// fixed on screen.
func (m *Map) ZoomAround(delta, x, y float64) {
	before, ok := m.Unproject(x, y)
	if !ok {
		m.SetZoom(m.Zoom() + delta)
		return
	}

	m.mu.Lock()
	m.anim = nil
	prev := m.cam
	next := prev
	next.Zoom += delta
	next = m.constrain(next)
	after, ok := newView(next, m.width, m.height).Unproject(x, y)
	if ok {
		b := geo.FromLngLat(before, 0)
		a := geo.FromLngLat(after, 0)
		c := geo.FromLngLat(next.Center, 0)
		c.X += b.X - a.X
		c.Y += b.Y - a.Y
		next.Center = c.LngLat()
	}
	m.cam = m.constrain(next)
	events := cameraEvents(prev, m.cam)
	m.mu.Unlock()
	m.emit(events...)
	m.emit(EventMoveEnd)
}

func cameraEvents(prev, next Camera) []Event {
	var events []Event
	if prev != next {
		events = append(events, EventMove)
	}
	if prev.Zoom != next.Zoom {
		events = append(events, EventZoom)
	}
	return events
}

// StyleLoaded reports whether sources and layers can be added.
func (m *Map) StyleLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// SetStyleLoaded marks the style ready and emits EventLoad on the first call.
func (m *Map) SetStyleLoaded() {
	m.mu.Lock()
	first := !m.loaded
	m.loaded = true
	m.mu.Unlock()
	if first {
		m.log.Debug("style loaded")
		m.emit(EventLoad)
	}
}

// On registers fn for event and returns a function removing it.
func (m *Map) On(event Event, fn func()) (off func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners[event] = append(m.listeners[event], listener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		ls := m.listeners[event]
		for i, l := range ls {
			if l.id == id {
				m.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (m *Map) emit(events ...Event) {
	for _, ev := range events {
		m.mu.RLock()
		ls := append([]listener(nil), m.listeners[ev]...)
		m.mu.RUnlock()
		for _, l := range ls {
			l.fn()
		}
	}
}

// AddElement adds an overlay element, replacing any element with the same id.
// Later elements are drawn on top.
func (m *Map) AddElement(e *Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.elements {
		if old.ID == e.ID {
			m.elements = append(m.elements[:i:i], m.elements[i+1:]...)
			break
		}
	}
	m.elements = append(m.elements, e)
}

// RemoveElement removes an element by id.
func (m *Map) RemoveElement(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.elements {
		if e.ID == id {
			m.elements = append(m.elements[:i:i], m.elements[i+1:]...)
			if m.hovered == e {
				m.hovered = nil
			}
			return true
		}
	}
	return false
}

// ClearElements removes every overlay element.
func (m *Map) ClearElements() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements = nil
	m.hovered = nil
}

// Elements returns the overlay elements in draw order.
func (m *Map) Elements() []*Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Element(nil), m.elements...)
}

// Element looks up an element by id.
func (m *Map) Element(id string) (*Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.elements {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// AddClusterSource indexes points for clustered layers.
func (m *Map) AddClusterSource(id string, points []cluster.Point, opts cluster.Options) error {
	idx, err := cluster.New(opts)
	if err != nil {
		return fmt.Errorf("source %q: %w", id, err)
	}
	idx.Load(points)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	if _, ok := m.sources[id]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	m.sources[id] = idx
	m.log.Debug("cluster source added", zap.String("source", id), zap.Int("points", len(points)))
	return nil
}

// Source returns a source's cluster index.
func (m *Map) Source(id string) (*cluster.Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.sources[id]
	return idx, ok
}

// HasSource reports whether a source exists.
func (m *Map) HasSource(id string) bool {
	_, ok := m.Source(id)
	return ok
}

// RemoveSource removes a source no layer draws.
func (m *Map) RemoveSource(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	for _, l := range m.layers {
		if l.Source == id {
			return fmt.Errorf("%w: %s by %s", ErrSourceInUse, id, l.ID)
		}
	}
	delete(m.sources, id)
	return nil
}

// AddLayer adds a layer on top of the existing ones.
func (m *Map) AddLayer(l *Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	if _, ok := m.sources[l.Source]; !ok {
		return fmt.Errorf("layer %q: %w: %s", l.ID, ErrUnknownSource, l.Source)
	}
	for _, existing := range m.layers {
		if existing.ID == l.ID {
			return fmt.Errorf("%w: %s", ErrLayerExists, l.ID)
		}
	}
	m.layers = append(m.layers, l)
	return nil
}

// RemoveLayer removes a layer by id.
func (m *Map) RemoveLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.layers {
		if l.ID == id {
			m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
			return true
		}
	}
	return false
}

// HasLayer reports whether a layer exists.
func (m *Map) HasLayer(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.layers {
		if l.ID == id {
			return true
		}
	}
	return false
}

// Layers returns the layers bottom to top.
func (m *Map) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Layer(nil), m.layers...)
}

// RenderedFeatures returns the features a layer draws at the current camera.
func (m *Map) RenderedFeatures(layerID string) []RenderedFeature {
	m.mu.RLock()
	var layer *Layer
	for _, l := range m.layers {
		if l.ID == layerID {
			layer = l
		}
	}
	var idx *cluster.Index
	if layer != nil {
		idx = m.sources[layer.Source]
	}
	v := newView(m.cam, m.width, m.height)
	m.mu.RUnlock()

	if idx == nil {
		return nil
	}
	return renderLayer(layer, idx, v)
}

func renderLayer(l *Layer, idx *cluster.Index, v View) []RenderedFeature {
	if l.MaxZoom > 0 && v.Camera.Zoom >= l.MaxZoom {
		return nil
	}
	var out []RenderedFeature
	for _, f := range idx.Clusters(cluster.World, v.Camera.Zoom) {
		if !l.Filter.Match(f) {
			continue
		}
		x, y, ok := v.Project(f.Position)
		if !ok {
			continue
		}
		r := l.hitRadius(f)
		if x+r < 0 || y+r < 0 || x-r > v.Width || y-r > v.Height {
			continue
		}
		out = append(out, RenderedFeature{
			LayerID: l.ID,
			Source:  l.Source,
			Feature: f,
			X:       x,
			Y:       y,
			Radius:  r,
		})
	}
	return out
}

// QueryRenderedFeatures returns the features under (x, y), top-most layer
// first. With no layer ids every layer is queried.
func (m *Map) QueryRenderedFeatures(x, y float64, layerIDs ...string) []RenderedFeature {
	want := make(map[string]bool, len(layerIDs))
	for _, id := range layerIDs {
		want[id] = true
	}

	var out []RenderedFeature
	for _, l := range reversed(m.Layers()) {
		if len(want) > 0 && !want[l.ID] {
			continue
		}
		for _, f := range m.RenderedFeatures(l.ID) {
			dx, dy := f.X-x, f.Y-y
			if dx*dx+dy*dy <= f.Radius*f.Radius {
				out = append(out, f)
			}
		}
	}
	return out
}

func reversed[T any](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
