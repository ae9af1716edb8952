// Package dispatcher runs scripts against the host document one at a time.
//
// An execution waits on a single-slot gate, is compiled and bound, then
// runs on the host thread under a deadline. The gate is released on every
// exit path, so a stuck or failing script never blocks the next one.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/semaphore"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/host"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/combine"
	"github.com/Sey56/Paracore-sub001/internal/script/params"
	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

// DefaultTimeout is the deadline applied when neither the request nor the
// dispatcher configures one.
const DefaultTimeout = 10 * time.Second

// Thread runs work on the host's execution thread.
type Thread interface {
	Post(ctx context.Context, fn func()) error
}

// Request is one execution request.
type Request struct {
	ScriptName string
	// Files are compiled on demand when Program is nil.
	Files []script.File
	// Program is a precompiled unit.
	Program engine.Program
	// Parameters is a JSON object or a [{name,value}] list.
	Parameters json.RawMessage
	// Values are already-bound parameters; they take precedence over Parameters.
	Values   params.Values
	ReadOnly bool
	// Source identifies the caller.
	Source  string
	Timeout time.Duration
}

// Dispatcher serializes executions onto the host thread.
type Dispatcher struct {
	logger         *slog.Logger
	thread         Thread
	doc            host.Document
	compiler       engine.Compiler
	publisher      execution.ChangePublisher
	metrics        *Metrics
	defaultTimeout time.Duration
	maxExtension   time.Duration

	gate    *semaphore.Weighted
	waiting atomic.Int64
	current atomic.Pointer[run]
	last    atomic.Pointer[execution.Result]
}

type run struct {
	id  string
	fsm finitestate.Machine
}

// New creates a dispatcher that runs programs on thread against doc.
func New(thread Thread, doc host.Document, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:         slog.Default().WithGroup("dispatcher"),
		thread:         thread,
		doc:            doc,
		defaultTimeout: DefaultTimeout,
		gate:           semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = NewMetrics(nil)
	}
	return d
}

// Document returns the host document executions run against.
func (d *Dispatcher) Document() host.Document { return d.doc }

// Execute runs one request and always returns a result; failures of any kind
// are reported through it.
func (d *Dispatcher) Execute(ctx context.Context, req Request) *execution.Result {
	id := uuid.Must(uuid.NewV6()).String()
	logger := d.logger.With("execution_id", id, "script", req.ScriptName, "source", req.Source)

	machine, err := finitestate.NewWithTransitions(
		logger.WithGroup("fsm").Handler(), execution.StateIdle, Transitions)
	if err != nil {
		return execution.NewFailure(id, req.ScriptName, fmt.Errorf("failed to create state machine: %w", err))
	}
	r := &run{id: id, fsm: machine}
	d.transition(logger, r, execution.StateQueued)

	result := d.execute(ctx, logger, r, req)
	result.State = r.fsm.GetState()
	result.ReadOnly = req.ReadOnly

	d.metrics.Executions.WithLabelValues(result.State, strconv.FormatBool(req.ReadOnly)).Inc()
	d.metrics.Duration.WithLabelValues(result.State).Observe(result.Duration.Seconds())
	if !req.ReadOnly {
		d.last.Store(result)
	}
	d.transition(logger, r, execution.StateIdle)
	logger.Debug("Execution finished", "state", result.State, "duration", result.Duration)
	return result
}

func (d *Dispatcher) execute(ctx context.Context, logger *slog.Logger, r *run, req Request) *execution.Result {
	waitStart := time.Now()
	d.waiting.Add(1)
	d.metrics.Queued.Inc()
	err := d.gate.Acquire(ctx, 1)
	d.waiting.Add(-1)
	d.metrics.Queued.Dec()
	d.metrics.GateWait.Observe(time.Since(waitStart).Seconds())
	if err != nil {
		d.transition(logger, r, execution.StateFailed)
		return execution.NewFailure(r.id, req.ScriptName,
			fmt.Errorf("canceled while waiting for the execution gate: %w", err))
	}
	defer d.gate.Release(1)

	d.current.Store(r)
	defer d.current.Store(nil)

	prog, values, err := d.prepare(ctx, req)
	if err != nil {
		d.transition(logger, r, execution.StateFailed)
		return execution.NewFailure(r.id, req.ScriptName, err)
	}

	return d.runOnHost(ctx, logger, r, req, prog, values)
}

// prepare resolves the program and binds the parameters.
func (d *Dispatcher) prepare(ctx context.Context, req Request) (engine.Program, params.Values, error) {
	if d.doc == nil {
		return nil, nil, ErrNoDocument
	}

	prog := req.Program
	if prog == nil {
		if len(req.Files) == 0 {
			return nil, nil, ErrNoCode
		}
		if _, err := combine.ResolveEntry(req.Files); errors.Is(err, combine.ErrAmbiguousEntry) {
			return nil, nil, err
		}
		if d.compiler == nil {
			return nil, nil, fmt.Errorf("%w: no compiler configured", engine.ErrNoProgram)
		}
		var err error
		prog, err = d.compiler.Compile(ctx, req.ScriptName, req.Files)
		if err != nil {
			return nil, nil, fmt.Errorf("compilation failed: %w", err)
		}
	}

	if req.Values != nil {
		return prog, req.Values, nil
	}
	var descriptors []script.Parameter
	if len(req.Files) > 0 {
		descriptors = params.Extract(sourceOf(req.Files))
	}
	values, err := params.Bind(descriptors, req.Parameters)
	if err != nil {
		return nil, nil, err
	}
	return prog, values, nil
}

// Pickup states of a posted run. A run is dropped when its caller leaves
// before the host thread reaches it.
const (
	pending int32 = iota
	picked
	dropped
)

// runOnHost posts prog to the host thread. The run becomes Running and its
// deadline starts only when the thread picks it up, so a run queued behind a
// script that outlived its own deadline still gets its full budget.
//
// The script's context belongs to the posted function: a caller that stops
// waiting leaves the script running until it returns or its deadline
// passes. Output written after the caller left is discarded.
func (d *Dispatcher) runOnHost(
	ctx context.Context,
	logger *slog.Logger,
	r *run,
	req Request,
	prog engine.Program,
	values params.Values,
) *execution.Result {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	var (
		pickup   atomic.Int32
		budget   atomic.Int64
		extended atomic.Bool
		timer    *time.Timer
		start    time.Time
	)
	budget.Store(int64(timeout))
	started := make(chan struct{})
	expired := make(chan struct{})
	done := make(chan error, 1)

	// extend runs on the host thread, after timer is set.
	extend := func(ext time.Duration) error {
		if ext <= 0 {
			return fmt.Errorf("invalid timeout extension %s", ext)
		}
		if d.maxExtension > 0 && ext > d.maxExtension {
			return fmt.Errorf("%w: %s > %s", ErrExtensionTooLong, ext, d.maxExtension)
		}
		if !extended.CompareAndSwap(false, true) {
			return ErrAlreadyExtended
		}
		if !timer.Stop() {
			return ErrDeadlinePassed
		}
		budget.Store(int64(ext))
		timer.Reset(ext)
		logger.Info("Timeout extended", "timeout", ext)
		return nil
	}

	x := execution.New(r.id, d.doc,
		execution.WithScriptName(req.ScriptName),
		execution.WithSource(req.Source),
		execution.WithReadOnly(req.ReadOnly),
		execution.WithParams(values),
		execution.WithChangePublisher(d.publisher),
		execution.WithTimeoutExtender(extend),
	)

	err := d.thread.Post(ctx, func() {
		defer cancel()
		if !pickup.CompareAndSwap(pending, picked) {
			return
		}
		d.transition(logger, r, execution.StateRunning)
		d.metrics.Running.Inc()
		start = time.Now()
		timer = time.AfterFunc(timeout, func() {
			close(expired)
			cancel()
		})
		close(started)

		err := invoke(runCtx, prog, x)
		timer.Stop()
		d.metrics.Running.Dec()
		done <- err
	})
	if err != nil {
		cancel()
		d.transition(logger, r, execution.StateFailed)
		res := d.assemble(r, req, x, fmt.Errorf("failed to reach the host thread: %w", err))
		res.StartedAt = time.Now()
		return res
	}

	select {
	case <-started:
	case <-ctx.Done():
		if pickup.CompareAndSwap(pending, dropped) {
			cancel()
			d.transition(logger, r, execution.StateFailed)
			res := d.assemble(r, req, x,
				fmt.Errorf("canceled while waiting for the host thread: %w", ctx.Err()))
			res.StartedAt = time.Now()
			return res
		}
		<-started
	}

	var runErr error
	state := execution.StateCompleted
	select {
	case runErr = <-done:
		if runErr != nil {
			state = execution.StateFailed
			select {
			case <-expired:
				runErr = &TimeoutError{After: time.Duration(budget.Load())}
				state = execution.StateTimedOut
			default:
			}
		}
	case <-expired:
		runErr = &TimeoutError{After: time.Duration(budget.Load())}
		state = execution.StateTimedOut
	case <-ctx.Done():
		runErr = fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
		state = execution.StateFailed
	}

	d.transition(logger, r, state)
	res := d.assemble(r, req, x, runErr)
	res.StartedAt = start
	res.Duration = time.Since(start)

	if err := x.PlaybackLogs(logger.Handler()); err != nil {
		logger.Warn("Failed to play back execution logs", "error", err)
	}
	switch state {
	case execution.StateTimedOut:
		logger.Warn("Execution timed out", "timeout", time.Duration(budget.Load()))
	case execution.StateFailed:
		logger.Info("Execution failed", "error", runErr)
	}
	return res
}

// invoke runs prog and converts a panic into an error.
func invoke(ctx context.Context, prog engine.Program, x *execution.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return prog.Run(ctx, x)
}

func (d *Dispatcher) assemble(r *run, req Request, x *execution.Context, runErr error) *execution.Result {
	captured := x.Drain()
	res := &execution.Result{
		ExecutionID:      r.id,
		ScriptName:       req.ScriptName,
		IsSuccess:        runErr == nil,
		ErrorDetails:     captured.ErrorDetails,
		Output:           captured.Output,
		StructuredOutput: captured.StructuredOutput,
		InternalData:     captured.InternalData,
		Err:              runErr,
	}
	if runErr != nil {
		res.ErrorMessage = runErr.Error()
	}
	return res
}

func (d *Dispatcher) transition(logger *slog.Logger, r *run, state string) {
	if err := r.fsm.Transition(state); err != nil {
		logger.Error("Invalid execution state transition", "to", state, "error", err)
	}
}

// sourceOf returns the C# text parameters are extracted from.
func sourceOf(files []script.File) string {
	return combine.Combine(files)
}
