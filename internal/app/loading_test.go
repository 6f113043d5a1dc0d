package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/engine/ui2d"
)

// runLoading enters s and pumps Update until onDone fires.
func runLoading(t *testing.T, s *LoadingState, done *int) {
	t.Helper()
	require.NoError(t, s.Enter())
	deadline := time.Now().Add(2 * time.Second)
	for *done == 0 && time.Now().Before(deadline) {
		require.NoError(t, s.Update(time.Millisecond))
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, *done, "onDone not called")
}

func TestLoadingWaitsForAllTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	tasks := []Task{
		{Name: "fast", Run: func(context.Context) error { return nil }},
		{Name: "slow", Run: func(context.Context) error { <-release; return nil }},
	}
	calls := 0
	var result error
	s := NewLoadingState(context.Background(), tasks, nil, zap.NewNop(), func(err error) {
		calls++
		result = err
	})
	require.NoError(t, s.Enter())

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Update(time.Millisecond))
		time.Sleep(time.Millisecond)
	}
	assert.Zero(t, calls, "handed over before the slow task finished")

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for calls == 0 && time.Now().Before(deadline) {
		require.NoError(t, s.Update(time.Millisecond))
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, calls)
	assert.NoError(t, result)
	assert.Equal(t, float32(1), s.Progress())

	// Further updates do not hand over again.
	require.NoError(t, s.Update(time.Millisecond))
	assert.Equal(t, 1, calls)
	require.NoError(t, s.Exit())
}

func TestLoadingOptionalFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	tasks := []Task{
		{Name: "markers", Run: func(context.Context) error { return nil }},
		{Name: "avatar", Optional: true, Run: func(context.Context) error { return errors.New("no model") }},
	}
	calls := 0
	var result error
	s := NewLoadingState(context.Background(), tasks, nil, zap.NewNop(), func(err error) {
		calls++
		result = err
	})
	runLoading(t, s, &calls)
	assert.NoError(t, result)
	require.NoError(t, s.Exit())
}

func TestLoadingRequiredFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("backend down")
	tasks := []Task{
		{Name: "markers", Run: func(context.Context) error { return boom }},
		{Name: "blocked", Run: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }},
	}
	calls := 0
	var result error
	s := NewLoadingState(context.Background(), tasks, nil, zap.NewNop(), func(err error) {
		calls++
		result = err
	})
	runLoading(t, s, &calls)
	require.ErrorIs(t, result, boom)
	assert.Contains(t, result.Error(), "markers")
	require.NoError(t, s.Exit())
}

func TestLoadingExitCancelsTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	tasks := []Task{
		{Name: "blocked", Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}},
	}
	calls := 0
	var result error
	s := NewLoadingState(context.Background(), tasks, nil, zap.NewNop(), func(err error) {
		calls++
		result = err
	})
	require.NoError(t, s.Enter())
	<-started
	require.NoError(t, s.Exit())

	deadline := time.Now().Add(2 * time.Second)
	for calls == 0 && time.Now().Before(deadline) {
		require.NoError(t, s.Update(time.Millisecond))
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, calls)
	assert.ErrorIs(t, result, context.Canceled)
}

func TestLoadingRenderShowsProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	canvas := &fakeCanvas{}
	ui := ui2d.NewContext(canvas, 800, 600)
	tasks := []Task{
		{Name: "one", Run: func(context.Context) error { return nil }},
		{Name: "two", Run: func(context.Context) error { return nil }},
	}
	calls := 0
	s := NewLoadingState(context.Background(), tasks, ui, zap.NewNop(), func(error) { calls++ })
	runLoading(t, s, &calls)

	frame(ui, 0, 0, false, s.Render)
	assert.Contains(t, strings.Join(canvas.texts, "|"), "2/2")
	require.NoError(t, s.Exit())
}

func TestLoadingNoTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	s := NewLoadingState(context.Background(), nil, nil, zap.NewNop(), func(error) { calls++ })
	assert.Equal(t, float32(1), s.Progress())
	runLoading(t, s, &calls)
	s.Render()
	require.NoError(t, s.Exit())
}
