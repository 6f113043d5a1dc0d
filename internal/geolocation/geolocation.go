// Package geolocation provides the user's position through a cached
// service that is constructed once and passed to whoever needs it.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/greenmap/internal/config"
	"github.com/Faultbox/greenmap/internal/geo"
)

// ErrUnavailable is returned when no position can be determined.
var ErrUnavailable = errors.New("position unavailable")

const cacheKey = "current"

// Provider determines the current position.
type Provider interface {
	Position(ctx context.Context) (geo.LngLat, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (geo.LngLat, error)

// Position implements Provider.
func (f ProviderFunc) Position(ctx context.Context) (geo.LngLat, error) { return f(ctx) }

// StaticProvider always reports the same position.
type StaticProvider geo.LngLat

// Position implements Provider.
func (p StaticProvider) Position(context.Context) (geo.LngLat, error) {
	return geo.LngLat(p), nil
}

// Options configures a Service.
type Options struct {
	Provider Provider
	TTL      time.Duration
	// Fallback is returned when the provider fails. Zero disables it.
	Fallback geo.LngLat
	Logger   *zap.Logger
}

// OptionsFromConfig builds options with a static provider at the configured
// position, which also serves as the fallback.
func OptionsFromConfig(c config.GeolocationConfig) Options {
	p := geo.LngLat{Lng: c.Lng, Lat: c.Lat}
	return Options{Provider: StaticProvider(p), TTL: c.CacheTTL, Fallback: p}
}

// Service caches the provider's answer for a TTL and collapses concurrent
// lookups into one provider call.
type Service struct {
	provider Provider
	ttl      time.Duration
	fallback geo.LngLat
	log      *zap.Logger

	cache *gocache.Cache
	group singleflight.Group
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		provider: opts.Provider,
		ttl:      opts.TTL,
		fallback: opts.Fallback,
		log:      opts.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = config.Default().Geolocation.CacheTTL
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	// Expired entries are dropped on read, so no janitor goroutine runs.
	s.cache = gocache.New(s.ttl, 0)
	return s
}

// Current returns the cached position, asking the provider when the cache
// is empty or expired.
func (s *Service) Current(ctx context.Context) (geo.LngLat, error) {
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(geo.LngLat), nil
	}

	v, err, shared := s.group.Do(cacheKey, func() (any, error) {
		return s.lookup(ctx)
	})
	if err != nil {
		if s.fallback.Valid() {
			s.log.Warn("using fallback position", zap.Error(err), zap.Stringer("position", s.fallback))
			return s.fallback, nil
		}
		return geo.LngLat{}, err
	}

	pos := v.(geo.LngLat)
	s.log.Debug("position resolved", zap.Stringer("position", pos), zap.Bool("shared", shared))
	return pos, nil
}

func (s *Service) lookup(ctx context.Context) (geo.LngLat, error) {
	if s.provider == nil {
		return geo.LngLat{}, ErrUnavailable
	}
	pos, err := s.provider.Position(ctx)
	if err != nil {
		return geo.LngLat{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := pos.Validate(); err != nil {
		return geo.LngLat{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.cache.Set(cacheKey, pos, s.ttl)
	return pos, nil
}

// Set stores a known position, for example one reported by the user.
func (s *Service) Set(pos geo.LngLat) error {
	if err := pos.Validate(); err != nil {
		return err
	}
	s.cache.Set(cacheKey, pos, s.ttl)
	return nil
}

// Invalidate forgets the cached position.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}
