package texture

import (
	"context"
	"errors"
	"image"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/greenmap/internal/logger"
)

// Loader fetches raw image bytes for a source URL or path.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

// Status is the load state of a library entry.
type Status int

const (
	StatusMissing Status = iota
	StatusPending
	StatusReady
	StatusFailed
)

// LibraryOptions configures a Library.
type LibraryOptions struct {
	ThumbnailSize int
	Concurrency   int
	Logger        *zap.Logger
}

type entry struct {
	status Status
	img    *image.RGBA
}

// Library loads marker images in the background and keeps square
// thumbnails for the renderer. Safe for concurrent use.
type Library struct {
	loader Loader
	size   int
	sem    *semaphore.Weighted
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
}

// NewLibrary creates a library fetching through loader.
func NewLibrary(loader Loader, opts LibraryOptions) *Library {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("texture")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Library{
		loader:  loader,
		size:    opts.ThumbnailSize,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Request starts loading src unless it is already known.
func (l *Library) Request(src string) {
	if src == "" {
		return
	}
	l.mu.Lock()
	if _, ok := l.entries[src]; ok || l.ctx.Err() != nil {
		l.mu.Unlock()
		return
	}
	l.entries[src] = &entry{status: StatusPending}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		img, err := l.load(src)
		l.mu.Lock()
		defer l.mu.Unlock()
		e := l.entries[src]
		if err != nil {
			e.status = StatusFailed
			if !errors.Is(err, context.Canceled) {
				l.log.Debug("image load failed", zap.String("src", src), zap.Error(err))
			}
			return
		}
		e.status = StatusReady
		e.img = img
	}()
}

func (l *Library) load(src string) (*image.RGBA, error) {
	if err := l.sem.Acquire(l.ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	data, err := l.loader.Load(l.ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Thumbnail(img, l.size), nil
}

// Get returns the thumbnail for src once it is ready.
func (l *Library) Get(src string) (*image.RGBA, Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[src]
	if !ok {
		return nil, StatusMissing
	}
	return e.img, e.status
}

// Wait blocks until all requested loads have finished.
func (l *Library) Wait() {
	l.wg.Wait()
}

// Close cancels in-flight loads and waits for them to exit.
func (l *Library) Close() {
	l.cancel()
	l.wg.Wait()
}
