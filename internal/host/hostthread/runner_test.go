package hostthread

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

func startRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	runner, err := NewRunner(opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("host thread did not stop")
		}
	})
	return runner
}

func TestNewRunner(t *testing.T) {
	t.Parallel()
	t.Run("defaults", func(t *testing.T) {
		runner, err := NewRunner()
		require.NoError(t, err)
		assert.Equal(t, context.Background(), runner.parentCtx)
		assert.Equal(t, 16, cap(runner.work))
		assert.Equal(t, finitestate.StatusNew, runner.GetState())
		assert.Equal(t, "hostthread.Runner", runner.String())
	})

	t.Run("applies options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		runner, err := NewRunner(WithLogger(logger), WithQueueSize(2))
		require.NoError(t, err)
		assert.Equal(t, logger, runner.logger)
		assert.Equal(t, 2, cap(runner.work))
	})
}

func TestRunner_PostBeforeRun(t *testing.T) {
	t.Parallel()
	runner, err := NewRunner()
	require.NoError(t, err)
	assert.ErrorIs(t, runner.Post(t.Context(), func() {}), ErrNotRunning)
	assert.ErrorIs(t, runner.Do(t.Context(), func() error { return nil }), ErrNotRunning)
}

func TestRunner_ExecutesInOrder(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	var mu sync.Mutex
	var order []int
	for i := range 5 {
		require.NoError(t, runner.Post(t.Context(), func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, runner.Do(t.Context(), func() error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRunner_Do(t *testing.T) {
	t.Parallel()
	runner := startRunner(t)

	t.Run("returns the error", func(t *testing.T) {
		want := errors.New("boom")
		assert.ErrorIs(t, runner.Do(t.Context(), func() error { return want }), want)
	})

	t.Run("recovers panics", func(t *testing.T) {
		err := runner.Do(t.Context(), func() error { panic("kaput") })
		require.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, err.Error(), "kaput")

		// the thread survives
		assert.NoError(t, runner.Do(t.Context(), func() error { return nil }))
	})

	t.Run("honours the caller context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		require.NoError(t, runner.Post(t.Context(), func() { <-release }))

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		err := runner.Do(ctx, func() error { return nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRunner_Stop(t *testing.T) {
	t.Parallel()
	runner, err := NewRunner()
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(t.Context()) }()
	require.Eventually(t, runner.IsRunning, time.Second, 5*time.Millisecond)

	runner.Stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, finitestate.StatusStopped, runner.GetState())
	assert.ErrorIs(t, runner.Post(t.Context(), func() {}), ErrNotRunning)
}
