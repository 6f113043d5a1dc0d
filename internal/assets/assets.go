// Package assets handles asset loading and caching.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no root holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager loads assets from HTTP URLs or local files.
type Manager struct {
	roots  []string
	client *http.Client
	cache  *Cache
	log    *zap.Logger
	mu     sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a new asset manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  NewCache(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddRoot adds a directory that relative paths are resolved against.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("opening root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()

	return nil
}

// IsURL reports whether src is fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Load returns the contents of src: an http(s) URL, an absolute path, or a
// path relative to one of the roots or the working directory.
func (m *Manager) Load(ctx context.Context, src string) ([]byte, error) {
	if data, ok := m.cache.Get(src); ok {
		return data, nil
	}

	var (
		data []byte
		err  error
	)
	if IsURL(src) {
		data, err = m.fetch(ctx, src)
	} else {
		data, err = m.read(src)
	}
	if err != nil {
		return nil, err
	}

	m.cache.Set(src, data)
	return data, nil
}

func (m *Manager) read(path string) ([]byte, error) {
	if filepath.IsAbs(path) {
		return readFile(path)
	}

	m.mu.RLock()
	roots := append([]string(nil), m.roots...)
	m.mu.RUnlock()

	// Search roots in reverse order
	for i := len(roots) - 1; i >= 0; i-- {
		data, err := os.ReadFile(filepath.Join(roots[i], filepath.FromSlash(path)))
		if err == nil {
			return data, nil
		}
	}
	return readFile(filepath.FromSlash(path))
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (m *Manager) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	m.log.Debug("asset request",
		zap.String("url", url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// Close drops the roots and the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is an in-memory cache for loaded assets.
type Cache struct {
	items *gocache.Cache
	mu    sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache. Entries never expire.
func NewCache() *Cache {
	return &Cache{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.items.Get(key)

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.items.Set(key, data, gocache.NoExpiration)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.items.Flush()

	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
