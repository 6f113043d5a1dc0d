package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/avatar"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/marker"
)

// AvatarControl is the avatar animation surface the controls drive.
// *avatar.StateMachine implements it.
type AvatarControl interface {
	StartWalking()
	StopWalking()
	ReturnToBaseIdle()
	CurrentState() avatar.State
	CurrentAnimationName() string
}

// MarkerControl is the marker engine surface. *markers.Manager implements it.
type MarkerControl interface {
	SetClusteringMode(enabled bool)
	Clustering() bool
	Refresh(delay time.Duration)
	GetAllMarkers() []marker.Marker
	GetMarkersByType(kind marker.Kind) []marker.Marker
	GetUserSubmissionStats(userID string) marker.SubmissionStats
}

// Locator resolves the user's position. *geolocation.Service implements it.
type Locator interface {
	Current(ctx context.Context) (geo.LngLat, error)
}

// Recenterer moves the camera. *camera.MapCamera implements it.
type Recenterer interface {
	CenterOn(p geo.LngLat, zoom *float64)
}

// Positioner places the avatar. *avatar.Layer implements it.
type Positioner interface {
	SetPosition(p geo.LngLat) error
}

// Controls maps user commands to the marker engine, the avatar and the
// camera. Any collaborator may be nil until it is available.
type Controls struct {
	Markers MarkerControl
	Avatar  AvatarControl
	Layer   Positioner
	Camera  Recenterer
	Locator Locator
	// RefreshDelay is the element stagger base for manual refreshes.
	RefreshDelay time.Duration
	Log          *zap.Logger

	mu       sync.Mutex
	selected *marker.Marker
}

func (c *Controls) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// ToggleWalking starts walking from any idle state and stops it otherwise.
func (c *Controls) ToggleWalking() {
	if c.Avatar == nil {
		return
	}
	if c.Avatar.CurrentState() == avatar.StateWalking {
		c.Avatar.StopWalking()
		return
	}
	c.Avatar.StartWalking()
}

// ReturnToIdle forces the base idle clip.
func (c *Controls) ReturnToIdle() {
	if c.Avatar != nil {
		c.Avatar.ReturnToBaseIdle()
	}
}

// ToggleClustering switches between individual and clustered markers.
func (c *Controls) ToggleClustering() {
	if c.Markers == nil {
		return
	}
	enabled := !c.Markers.Clustering()
	c.Markers.SetClusteringMode(enabled)
	c.logger().Info("clustering toggled", zap.Bool("enabled", enabled))
}

// SetClustering applies a clustering mode if it differs from the current one.
func (c *Controls) SetClustering(enabled bool) {
	if c.Markers != nil && c.Markers.Clustering() != enabled {
		c.Markers.SetClusteringMode(enabled)
	}
}

// Refresh refetches markers in the background.
func (c *Controls) Refresh() {
	if c.Markers != nil {
		c.ClearSelection()
		c.Markers.Refresh(c.RefreshDelay)
	}
}

// Locate moves the camera and the avatar to the user's position.
func (c *Controls) Locate(ctx context.Context) (geo.LngLat, error) {
	if c.Locator == nil {
		return geo.LngLat{}, fmt.Errorf("no locator configured")
	}
	pos, err := c.Locator.Current(ctx)
	if err != nil {
		return geo.LngLat{}, fmt.Errorf("locating: %w", err)
	}
	if c.Camera != nil {
		c.Camera.CenterOn(pos, nil)
	}
	if c.Layer != nil {
		if err := c.Layer.SetPosition(pos); err != nil {
			return pos, fmt.Errorf("placing avatar: %w", err)
		}
	}
	return pos, nil
}

// Select records a clicked marker for the HUD.
func (c *Controls) Select(m marker.Marker) {
	c.mu.Lock()
	c.selected = &m
	c.mu.Unlock()
	c.logger().Info("marker selected", zap.String("id", m.ID), zap.String("kind", string(m.Kind())))
}

// Selected returns the last clicked marker.
func (c *Controls) Selected() (marker.Marker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return marker.Marker{}, false
	}
	return *c.selected, true
}

// ClearSelection hides the detail panel.
func (c *Controls) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}
