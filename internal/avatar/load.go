package avatar

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/greenmap/internal/assets"
	"github.com/Faultbox/greenmap/internal/avatar/anim"
	"github.com/Faultbox/greenmap/pkg/formats"
)

// Avatar is a loaded model with its named clips.
type Avatar struct {
	Model    *formats.GLB
	Skeleton *anim.Skeleton
	Clips    map[string]*anim.Clip
}

// ClipNames returns the names of the loaded clips.
func (a *Avatar) ClipNames() []string {
	names := make([]string, 0, len(a.Clips))
	for name := range a.Clips {
		names = append(names, name)
	}
	return names
}

// Loader fetches avatar models and animation clips.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

var _ Loader = (*assets.Manager)(nil)

// LoadOptions names the model and the clips to load.
type LoadOptions struct {
	ModelURL      string
	AnimationsDir string
	Names         []string
}

// ClipSource returns the location of a named clip file.
func ClipSource(dir, name string) string {
	if dir == "" {
		return name + ".glb"
	}
	return strings.TrimRight(dir, "/") + "/" + name + ".glb"
}

// Load fetches the model and every named clip concurrently. The model is
// required; a missing or broken clip is logged and skipped.
func Load(ctx context.Context, l Loader, opts LoadOptions, log *zap.Logger) (*Avatar, error) {
	if log == nil {
		log = zap.NewNop()
	}

	av := &Avatar{Clips: make(map[string]*anim.Clip, len(opts.Names))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := l.Load(ctx, opts.ModelURL)
		if err != nil {
			return fmt.Errorf("loading avatar model: %w", err)
		}
		glb, err := formats.ParseGLB(data)
		if err != nil {
			return fmt.Errorf("parsing avatar model %s: %w", opts.ModelURL, err)
		}
		mu.Lock()
		av.Model = glb
		mu.Unlock()
		return nil
	})

	for _, name := range opts.Names {
		g.Go(func() error {
			clip, err := loadClip(ctx, l, ClipSource(opts.AnimationsDir, name), name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("skipping animation", zap.String("name", name), zap.Error(err))
				return nil
			}
			mu.Lock()
			av.Clips[name] = clip
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	av.Skeleton = anim.SkeletonFromGLB(av.Model)
	log.Info("avatar loaded",
		zap.String("model", opts.ModelURL),
		zap.Int("joints", len(av.Skeleton.Joints)),
		zap.Int("clips", len(av.Clips)),
		zap.Int("requested", len(opts.Names)))
	return av, nil
}

// loadClip reads the first animation of a clip file and renames it.
func loadClip(ctx context.Context, l Loader, src, name string) (*anim.Clip, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	glb, err := formats.ParseGLB(data)
	if err != nil {
		return nil, err
	}
	clips, err := anim.ClipsFromGLB(glb)
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("%s: no animations", src)
	}
	clip := clips[0]
	clip.Name = name
	return clip, nil
}
