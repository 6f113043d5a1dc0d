package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/greenmap/internal/engine/input"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
)

// Task is one unit of startup work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
	// Optional tasks log their failure instead of failing startup.
	Optional bool
}

// LoadingState runs the startup tasks concurrently and hands over once all
// of them have finished.
type LoadingState struct {
	tasks  []Task
	ui     *ui2d.Context
	log    *zap.Logger
	onDone func(err error)

	ctx      context.Context
	cancel   context.CancelFunc
	finished atomic.Int32
	done     chan error
	elapsed  time.Duration
	status   atomic.Value // string
	handed   bool
}

// NewLoadingState creates the state. onDone runs on the frame loop with the
// first required task error, or nil.
func NewLoadingState(ctx context.Context, tasks []Task, ui *ui2d.Context, log *zap.Logger, onDone func(err error)) *LoadingState {
	ctx, cancel := context.WithCancel(ctx)
	s := &LoadingState{
		tasks:  tasks,
		ui:     ui,
		log:    log,
		onDone: onDone,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan error, 1),
	}
	s.status.Store("Starting")
	return s
}

// Enter starts the tasks.
func (s *LoadingState) Enter() error {
	s.log.Info("loading", zap.Int("tasks", len(s.tasks)))

	g, ctx := errgroup.WithContext(s.ctx)
	for _, t := range s.tasks {
		g.Go(func() error {
			s.status.Store(t.Name)
			err := t.Run(ctx)
			s.finished.Add(1)
			if err == nil {
				s.log.Debug("startup task finished", zap.String("task", t.Name))
				return nil
			}
			if t.Optional {
				s.log.Warn("optional startup task failed", zap.String("task", t.Name), zap.Error(err))
				return nil
			}
			return fmt.Errorf("%s: %w", t.Name, err)
		})
	}
	go func() {
		s.done <- g.Wait()
	}()
	return nil
}

// Exit cancels unfinished tasks.
func (s *LoadingState) Exit() error {
	s.cancel()
	return nil
}

// Update hands over once the barrier is reached.
func (s *LoadingState) Update(dt time.Duration) error {
	s.elapsed += dt
	if s.handed {
		return nil
	}
	select {
	case err := <-s.done:
		s.handed = true
		s.log.Info("loading finished", zap.Duration("elapsed", s.elapsed), zap.Error(err))
		s.onDone(err)
	default:
	}
	return nil
}

// Progress returns the finished fraction of the tasks.
func (s *LoadingState) Progress() float32 {
	if len(s.tasks) == 0 {
		return 1
	}
	return float32(s.finished.Load()) / float32(len(s.tasks))
}

// Render draws the progress window.
func (s *LoadingState) Render() {
	if s.ui == nil {
		return
	}
	sw, sh := s.ui.ScreenSize()
	const w, h = 320, 96
	if s.ui.BeginWindow("loading", (sw-w)/2, (sh-h)/2, w, h, "GreenMap") {
		s.ui.Row(14)
		s.ui.LabelCentered(s.status.Load().(string))
		s.ui.Row(18)
		s.ui.ProgressBar(s.Progress(), 0, 0, fmt.Sprintf("%d/%d", s.finished.Load(), len(s.tasks)))
		s.ui.EndWindow()
	}
}

// HandleInput ignores input while loading.
func (s *LoadingState) HandleInput(input.Event) error {
	return nil
}
