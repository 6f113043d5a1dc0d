// Package markers keeps the live marker set and its presentation on the map:
// individual elements, or elements plus clustered layers that take over
// below a zoom threshold.
package markers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/cluster"
	"github.com/Faultbox/greenmap/internal/logger"
	"github.com/Faultbox/greenmap/internal/mapview"
	"github.com/Faultbox/greenmap/internal/marker"
)

var (
	// ErrMapNotReady is returned when the map style did not load within the
	// configured number of retries.
	ErrMapNotReady = errors.New("map not ready")
	// ErrSuperseded is returned by a refresh that a newer refresh replaced.
	ErrSuperseded = errors.New("marker refresh superseded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("marker manager closed")
)

// Host is the map the markers are drawn on. *mapview.Map implements it.
type Host interface {
	Now() time.Time
	Zoom() float64
	StyleLoaded() bool
	On(event mapview.Event, fn func()) (off func())

	AddElement(e *mapview.Element)
	RemoveElement(id string) bool

	AddClusterSource(id string, points []cluster.Point, opts cluster.Options) error
	Source(id string) (*cluster.Index, bool)
	HasSource(id string) bool
	RemoveSource(id string) error
	AddLayer(l *mapview.Layer) error
	HasLayer(id string) bool
	RemoveLayer(id string) bool

	EaseTo(opts mapview.CameraOptions)
}

// Fetcher loads marker records from the backend. *api.Client implements it.
type Fetcher interface {
	FetchMarkers(ctx context.Context) (*api.MarkersResponse, error)
}

var (
	_ Host    = (*mapview.Map)(nil)
	_ Fetcher = (*api.Client)(nil)
)

// Manager owns the marker collection and its map presentation.
type Manager struct {
	host  Host
	fetch Fetcher
	opts  Options
	log   *zap.Logger

	mu         sync.Mutex
	set        marker.Set
	clustering bool
	elements   []*mapview.Element
	generation uint64
	setVersion uint64
	cancel     context.CancelFunc
	closed     bool

	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	offZoom func()
}

// New creates a manager drawing on host. It listens to zoom changes until
// Close.
func New(host Host, fetch Fetcher, opts Options) *Manager {
	opts = opts.withDefaults()
	log := opts.Logger
	if log == nil {
		log = logger.Named("markers")
	}

	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		host:       host,
		fetch:      fetch,
		opts:       opts,
		log:        log,
		clustering: opts.Clustering,
		ctx:        ctx,
		stop:       stop,
	}
	m.offZoom = host.On(mapview.EventZoom, m.onZoom)
	return m
}

// load fetches and normalizes markers. Any failure other than cancellation
// yields the fallback set.
func (m *Manager) load(ctx context.Context) (marker.Set, error) {
	resp, err := m.fetch.FetchMarkers(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return marker.Set{}, ctxErr
		}
		m.log.Warn("marker fetch failed, using fallback set", zap.Error(err))
		return marker.NewSet(marker.Fallback()), nil
	}

	set := marker.NewSet(marker.FromResponse(resp, m.log))
	m.log.Info("markers loaded",
		zap.Int("received", resp.Total()),
		zap.Int("valid", set.Len()))
	return set, nil
}

// FetchMarkers reloads the collection without touching the map. It fails
// when ctx is done, or with ErrSuperseded when another load stored a set
// while this one was in flight; the loaded set is then discarded.
func (m *Manager) FetchMarkers(ctx context.Context) error {
	m.mu.Lock()
	version := m.setVersion
	m.mu.Unlock()

	set, err := m.load(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setVersion != version {
		return ErrSuperseded
	}
	m.storeLocked(set)
	return nil
}

func (m *Manager) storeLocked(set marker.Set) {
	m.set = set
	m.setVersion++
}

// AddMarkers clears the current presentation, reloads the collection and
// renders it in the active mode. Element appearance is staggered by delay
// plus index * StaggerStep. A newer AddMarkers cancels this one, which
// then returns ErrSuperseded.
func (m *Manager) AddMarkers(ctx context.Context, delay time.Duration) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	gen := m.generation
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.clearLocked()
	m.mu.Unlock()
	defer cancel()

	set, err := m.load(ctx)
	if err == nil {
		err = m.waitReady(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return ErrSuperseded
	}
	m.cancel = nil
	if err != nil {
		return err
	}

	m.storeLocked(set)
	m.clearLocked()
	m.renderLocked(delay)
	return nil
}

// Refresh runs AddMarkers in the background. It is cancelled by Close.
func (m *Manager) Refresh(delay time.Duration) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		err := m.AddMarkers(m.ctx, delay)
		switch {
		case err == nil, errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled), errors.Is(err, ErrClosed):
		default:
			m.log.Error("marker refresh failed", zap.Error(err))
		}
	}()
}

func (m *Manager) waitReady(ctx context.Context) error {
	for attempt := 0; !m.host.StyleLoaded(); attempt++ {
		if attempt >= m.opts.ReadyMaxRetries {
			return fmt.Errorf("%w after %d retries", ErrMapNotReady, attempt)
		}
		m.log.Debug("map not ready, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", m.opts.ReadyRetryDelay))

		timer := time.NewTimer(m.opts.ReadyRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// SetClusteringMode switches rendering mode and re-renders the current
// collection without refetching. During a refresh only the mode is recorded;
// the refresh renders in it.
func (m *Manager) SetClusteringMode(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.clustering = enabled
	if m.cancel != nil {
		m.log.Info("clustering mode changed during refresh", zap.Bool("enabled", enabled))
		return
	}
	m.clearLocked()
	m.renderLocked(0)
	m.log.Info("clustering mode changed", zap.Bool("enabled", enabled))
}

// Clustering reports whether clustered mode is active.
func (m *Manager) Clustering() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clustering
}

// clearLocked removes this manager's elements, layers and source.
func (m *Manager) clearLocked() {
	for _, e := range m.elements {
		m.host.RemoveElement(e.ID)
	}
	m.elements = nil

	for _, id := range layerIDs {
		if m.host.HasLayer(id) {
			m.host.RemoveLayer(id)
		}
	}
	if m.host.HasSource(SourceID) {
		if err := m.host.RemoveSource(SourceID); err != nil {
			m.log.Warn("removing cluster source", zap.Error(err))
		}
	}
}

func (m *Manager) renderLocked(delay time.Duration) {
	markers := m.set.All()
	now := m.host.Now()

	valid := markers[:0]
	for _, mk := range markers {
		if err := mk.Position.Validate(); err != nil {
			m.log.Debug("skipping marker at render", zap.String("id", mk.ID), zap.Error(err))
			continue
		}
		valid = append(valid, mk)
	}

	for i, mk := range valid {
		style := marker.StyleFor(mk.Kind())
		e := &mapview.Element{
			ID:          mk.ID,
			Position:    mk.Position,
			BorderColor: style.BorderColor,
			Badge:       style.Badge,
			Image:       mk.Image,
			AppearAt:    now.Add(delay + time.Duration(i)*m.opts.StaggerStep),
			OnClick:     m.clickHandler(mk),
		}
		m.host.AddElement(e)
		m.elements = append(m.elements, e)
	}

	if m.clustering {
		m.addClusterLayersLocked(valid)
		m.applyZoomLocked(m.host.Zoom())
	}
	m.log.Debug("markers rendered", zap.Int("count", len(valid)), zap.Bool("clustering", m.clustering))
}

func (m *Manager) addClusterLayersLocked(markers []marker.Marker) {
	points := make([]cluster.Point, len(markers))
	for i, mk := range markers {
		points[i] = cluster.Point{ID: mk.ID, Position: mk.Position}
	}

	opts := cluster.DefaultOptions()
	opts.Radius = m.opts.ClusterRadius
	opts.MaxZoom = m.opts.ClusterMaxZoom
	if err := m.host.AddClusterSource(SourceID, points, opts); err != nil {
		m.log.Warn("adding cluster source", zap.Error(err))
		return
	}
	for _, l := range clusterLayers(m.opts.ZoomThreshold, m.onClusterClick) {
		if err := m.host.AddLayer(l); err != nil {
			m.log.Warn("adding cluster layer", zap.String("layer", l.ID), zap.Error(err))
		}
	}
}

func (m *Manager) onZoom() {
	zoom := m.host.Zoom()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clustering {
		m.applyZoomLocked(zoom)
	}
}

// applyZoomLocked hides individual elements below the threshold, leaving
// the cluster layers as the only marker visuals.
func (m *Manager) applyZoomLocked(zoom float64) {
	show := zoom >= m.opts.ZoomThreshold
	for _, e := range m.elements {
		e.SetDisplay(show)
	}
}

func (m *Manager) clickHandler(mk marker.Marker) func() {
	return func() {
		if m.opts.OnMarkerClick != nil {
			m.opts.OnMarkerClick(mk)
			return
		}
		m.log.Info(marker.Summary(mk), zap.String("id", mk.ID))
	}
}

func (m *Manager) onClusterClick(f mapview.RenderedFeature) {
	idx, ok := m.host.Source(SourceID)
	if !ok {
		return
	}
	zoom, err := idx.ExpansionZoom(f.ClusterID)
	if err != nil {
		m.log.Warn("cluster expansion zoom", zap.Int("cluster", f.ClusterID), zap.Error(err))
		return
	}
	target := float64(zoom) + m.opts.ZoomOffset
	center := f.Position
	m.host.EaseTo(mapview.CameraOptions{
		Center:   &center,
		Zoom:     &target,
		Duration: m.opts.EaseDuration,
	})
}

// GetAllMarkers returns every live marker.
func (m *Manager) GetAllMarkers() []marker.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.All()
}

// GetMarkersByType returns the live markers of one kind.
func (m *Manager) GetMarkersByType(kind marker.Kind) []marker.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.ByKind(kind)
}

// GetMarkersByUserID returns the live markers created by a user.
func (m *Manager) GetMarkersByUserID(userID string) []marker.Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.ByUserID(userID)
}

// GetUserSubmissionStats counts a user's live markers per kind.
func (m *Manager) GetUserSubmissionStats(userID string) marker.SubmissionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Stats(userID)
}

// Close cancels in-flight refreshes, waits for background work and stops
// listening to the map.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()
	m.offZoom()
}
