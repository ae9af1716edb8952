// Package hostthread owns the single OS thread on which every document
// access happens. Work is posted to the thread and runs one item at a time
// in posting order.
package hostthread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

var (
	// ErrNotRunning is returned when work is posted to a thread that is not running.
	ErrNotRunning = errors.New("host thread is not running")

	// ErrPanic wraps a panic raised by work executed with Do.
	ErrPanic = errors.New("panic on host thread")
)

var _ supervisor.Runnable = (*Runner)(nil)

// Runner is a supervisor.Runnable that locks itself to an OS thread and
// executes posted functions on it.
type Runner struct {
	logger    *slog.Logger
	fsm       finitestate.Machine
	queueSize int
	work      chan func()

	runCtx    context.Context
	runCancel context.CancelFunc
	parentCtx context.Context
}

// NewRunner creates a host thread. It does not start until Run is called.
func NewRunner(opts ...Option) (*Runner, error) {
	runner := &Runner{
		logger:    slog.Default().WithGroup("hostthread.Runner"),
		parentCtx: context.Background(),
		queueSize: 16,
	}
	for _, opt := range opts {
		opt(runner)
	}
	runner.work = make(chan func(), runner.queueSize)

	fsm, err := finitestate.New(runner.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	runner.fsm = fsm
	return runner, nil
}

// String implements the supervisor.Runnable interface
func (r *Runner) String() string {
	return "hostthread.Runner"
}

// Run implements the supervisor.Runnable interface. It blocks until ctx or
// the parent context is canceled, or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.fsm.Transition(finitestate.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting state: %w", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r.runCtx, r.runCancel = context.WithCancel(ctx)
	defer r.runCancel()

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		return fmt.Errorf("failed to transition to running state: %w", err)
	}
	r.logger.Debug("Host thread started")

	for running := true; running; {
		select {
		case <-r.parentCtx.Done():
			r.logger.Debug("Parent context canceled")
			running = false
		case <-r.runCtx.Done():
			r.logger.Debug("Run context canceled")
			running = false
		case fn := <-r.work:
			r.execute(fn)
		}
	}

	if r.fsm.GetState() != finitestate.StatusStopping {
		if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
			r.logger.Error("Failed to transition to stopping state", "error", err)
		}
	}
	if dropped := len(r.work); dropped > 0 {
		r.logger.Warn("Dropping queued host work", "count", dropped)
	}
	if err := r.fsm.Transition(finitestate.StatusStopped); err != nil {
		return fmt.Errorf("failed to transition to stopped state: %w", err)
	}
	r.logger.Debug("Host thread stopped")
	return nil
}

func (r *Runner) execute(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered panic on host thread", "panic", p)
		}
	}()
	fn()
}

// Stop implements the supervisor.Runnable interface
func (r *Runner) Stop() {
	r.logger.Debug("Stopping host thread")
	if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
		r.logger.Error("Failed to transition to stopping state", "error", err)
	}
	if r.runCancel != nil {
		r.runCancel()
	}
}

// Post queues fn for execution on the host thread and returns without
// waiting for it to run.
func (r *Runner) Post(ctx context.Context, fn func()) error {
	if !r.IsRunning() {
		return ErrNotRunning
	}
	select {
	case r.work <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.runCtx.Done():
		return ErrNotRunning
	}
}

// Do runs fn on the host thread and waits for its result. A panic in fn is
// returned as an error wrapping ErrPanic.
func (r *Runner) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	err := r.Post(ctx, func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("%w: %v", ErrPanic, p)
			}
		}()
		done <- fn()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.runCtx.Done():
		return ErrNotRunning
	}
}
