package markers

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/config"
	"github.com/Faultbox/greenmap/internal/marker"
)

// Options configures a Manager.
type Options struct {
	Clustering      bool
	ClusterRadius   float64
	ClusterMaxZoom  int
	ZoomThreshold   float64       // below it only cluster visuals are shown
	ZoomOffset      float64       // added to a cluster's expansion zoom on click
	EaseDuration    time.Duration // cluster click camera animation
	ReadyRetryDelay time.Duration
	ReadyMaxRetries int
	StaggerStep     time.Duration

	// OnMarkerClick receives clicked markers. When nil, a text summary is
	// logged instead.
	OnMarkerClick func(marker.Marker)
	Logger        *zap.Logger
}

// OptionsFromConfig maps the markers config section to Options.
func OptionsFromConfig(cfg config.MarkersConfig) Options {
	return Options{
		Clustering:      cfg.Clustering,
		ClusterRadius:   cfg.ClusterRadius,
		ClusterMaxZoom:  cfg.ClusterMaxZoom,
		ZoomThreshold:   cfg.ClusterZoomThreshold,
		ZoomOffset:      cfg.ClusterZoomOffset,
		EaseDuration:    cfg.ClusterEaseDuration,
		ReadyRetryDelay: cfg.ReadyRetryDelay,
		ReadyMaxRetries: cfg.ReadyMaxRetries,
		StaggerStep:     cfg.StaggerStep,
	}
}

func (o Options) withDefaults() Options {
	def := OptionsFromConfig(config.Default().Markers)
	if o.ClusterRadius <= 0 {
		o.ClusterRadius = def.ClusterRadius
	}
	if o.ClusterMaxZoom <= 0 {
		o.ClusterMaxZoom = def.ClusterMaxZoom
	}
	if o.ZoomThreshold <= 0 {
		o.ZoomThreshold = def.ZoomThreshold
	}
	if o.ReadyRetryDelay <= 0 {
		o.ReadyRetryDelay = def.ReadyRetryDelay
	}
	if o.ReadyMaxRetries <= 0 {
		o.ReadyMaxRetries = def.ReadyMaxRetries
	}
	if o.StaggerStep < 0 {
		o.StaggerStep = 0
	}
	return o
}
