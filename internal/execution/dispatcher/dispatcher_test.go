package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/host"
	"github.com/Sey56/Paracore-sub001/internal/host/hostthread"
	"github.com/Sey56/Paracore-sub001/internal/host/sqlhost"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

type fixture struct {
	d   *Dispatcher
	doc *sqlhost.Document
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	doc, err := sqlhost.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, doc.Close()) })

	thread, err := hostthread.NewRunner()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- thread.Run(ctx) }()
	require.Eventually(t, thread.IsRunning, time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	return fixture{d: New(thread, doc, opts...), doc: doc}
}

func program(fn func(ctx context.Context, x *execution.Context) error) engine.Program {
	return engine.ProgramFunc(fn)
}

func TestExecute_Completed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	assert.Equal(t, execution.StateIdle, f.d.State())
	assert.Nil(t, f.d.LastResult())

	res := f.d.Execute(t.Context(), Request{
		ScriptName: "hello",
		Program: program(func(_ context.Context, x *execution.Context) error {
			x.Println("hello from", x.ScriptName())
			return x.Show("message", "done")
		}),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, execution.StateCompleted, res.State)
	assert.Equal(t, "hello from hello\n", res.Output)
	assert.Len(t, res.StructuredOutput, 1)
	assert.NotEmpty(t, res.ExecutionID)
	assert.Empty(t, res.ErrorDetails)

	assert.Equal(t, execution.StateIdle, f.d.State())
	assert.Same(t, res, f.d.LastResult())
}

func TestExecute_FailureRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{
		ScriptName: "walls",
		Program: program(func(ctx context.Context, x *execution.Context) error {
			x.Println("creating walls")
			return x.Transact(ctx, "Create walls", func(doc host.Document) error {
				if _, err := doc.Create(ctx, host.Element{Type: "Wall", Name: "W1"}); err != nil {
					return err
				}
				return errors.New("wall height must be positive")
			})
		}),
	})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, execution.StateFailed, res.State)
	assert.Equal(t, "wall height must be positive", res.ErrorMessage)
	assert.Equal(t, "creating walls\n", res.Output)
	assert.Empty(t, res.InternalData)

	n, err := f.doc.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, execution.StateIdle, f.d.State())
}

func TestExecute_CommitReportsWorkingSet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{
		ScriptName: "walls",
		Program: program(func(ctx context.Context, x *execution.Context) error {
			return x.Transact(ctx, "Create walls", func(doc host.Document) error {
				_, err := doc.Create(ctx, host.Element{Type: "Wall", Name: "W1"})
				return err
			})
		}),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	ws, ok := execution.ParseWorkingSet(res.InternalData)
	require.True(t, ok)
	assert.Equal(t, execution.OperationAdd, ws.Operation)
	assert.Len(t, ws.ElementIDs, 1)
}

func TestExecute_PanicIsFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { panic("nil element") }),
	})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, execution.StateFailed, res.State)
	require.ErrorIs(t, res.Err, ErrPanic)
	assert.Contains(t, res.ErrorMessage, "nil element")

	// the dispatcher and host thread keep working
	res = f.d.Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { return nil }),
	})
	assert.True(t, res.IsSuccess)
}

func TestExecute_Timeout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{
		ScriptName: "slow",
		Timeout:    50 * time.Millisecond,
		Program: program(func(ctx context.Context, _ *execution.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, execution.StateTimedOut, res.State)
	assert.Contains(t, res.ErrorMessage, "timed out after")
	assert.Contains(t, res.ErrorMessage, "ExtendTimeout")
	var te *TimeoutError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, 50*time.Millisecond, te.After)
	assert.Equal(t, execution.StateIdle, f.d.State())

	start := time.Now()
	res = f.d.Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { return nil }),
	})
	assert.True(t, res.IsSuccess)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecute_RunAfterStuckScriptGetsFullBudget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	begin := time.Now()
	res := f.d.Execute(t.Context(), Request{
		ScriptName: "stuck",
		Timeout:    50 * time.Millisecond,
		Program: program(func(context.Context, *execution.Context) error {
			time.Sleep(400 * time.Millisecond)
			return nil
		}),
	})
	require.Equal(t, execution.StateTimedOut, res.State)
	assert.Less(t, time.Since(begin), 300*time.Millisecond)

	var ranAt atomic.Int64
	next := make(chan *execution.Result, 1)
	go func() {
		next <- f.d.Execute(context.Background(), Request{
			ScriptName: "quick",
			Timeout:    200 * time.Millisecond,
			Program: program(func(context.Context, *execution.Context) error {
				ranAt.Store(time.Now().UnixNano())
				return nil
			}),
		})
	}()

	// the follow-up holds the gate but waits for the host thread without
	// being reported as running
	assert.Eventually(t, func() bool {
		return f.d.State() == execution.StateQueued
	}, time.Second, 5*time.Millisecond)

	select {
	case res = <-next:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up execution did not finish")
	}
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, execution.StateCompleted, res.State)
	assert.NotZero(t, ranAt.Load())
	assert.Equal(t, execution.StateIdle, f.d.State())
}

func TestExecute_AbandonedCallerLeavesScriptRunning(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	finished := make(chan error, 1)
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()

	res := f.d.Execute(ctx, Request{
		Timeout: 2 * time.Second,
		Program: program(func(ctx context.Context, x *execution.Context) error {
			select {
			case <-time.After(150 * time.Millisecond):
			case <-ctx.Done():
			}
			finished <- ctx.Err()
			x.Println("too late")
			return nil
		}),
	})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, execution.StateFailed, res.State)
	require.ErrorIs(t, res.Err, ErrAbandoned)

	select {
	case err := <-finished:
		assert.NoError(t, err, "script context canceled by the caller leaving")
	case <-time.After(2 * time.Second):
		t.Fatal("script did not finish")
	}
	assert.Empty(t, res.Output)
}

func TestExecute_AbandonedScriptStillHitsDeadline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	finished := make(chan error, 1)
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	res := f.d.Execute(ctx, Request{
		Timeout: 100 * time.Millisecond,
		Program: program(func(ctx context.Context, _ *execution.Context) error {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
			}
			finished <- ctx.Err()
			return ctx.Err()
		}),
	})
	require.ErrorIs(t, res.Err, ErrAbandoned)

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("deadline did not cancel the script")
	}
}

func TestTimeoutError_Message(t *testing.T) {
	t.Parallel()
	tests := []struct {
		after time.Duration
		want  string
	}{
		{after: 10 * time.Second, want: "timed out after 10 seconds"},
		{after: time.Second, want: "timed out after 1 second"},
		{after: 50 * time.Millisecond, want: "timed out after 50ms"},
		{after: 1500 * time.Millisecond, want: "timed out after 1.5s"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			err := &TimeoutError{After: tc.after}
			assert.Contains(t, err.Error(), tc.want)
			assert.Contains(t, err.Error(), "ExtendTimeout")
		})
	}
}

func TestExecute_ExtendTimeoutOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, WithMaxExtension(time.Minute))

	var second, tooLong error
	res := f.d.Execute(t.Context(), Request{
		Timeout: 50 * time.Millisecond,
		Program: program(func(ctx context.Context, x *execution.Context) error {
			tooLong = x.ExtendTimeout(time.Hour)
			if err := x.ExtendTimeout(2 * time.Second); err != nil {
				return err
			}
			second = x.ExtendTimeout(time.Second)
			select {
			case <-time.After(150 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.ErrorIs(t, tooLong, ErrExtensionTooLong)
	assert.ErrorIs(t, second, ErrAlreadyExtended)
}

func TestExecute_MutualExclusion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	type span struct{ start, end time.Time }
	var (
		mu    sync.Mutex
		spans []span
	)
	prog := program(func(context.Context, *execution.Context) error {
		s := span{start: time.Now()}
		time.Sleep(30 * time.Millisecond)
		s.end = time.Now()
		mu.Lock()
		spans = append(spans, s)
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.d.Execute(context.Background(), Request{Program: prog})
			assert.True(t, res.IsSuccess)
		}()
	}
	wg.Wait()

	require.Len(t, spans, 3)
	for i := 1; i < len(spans); i++ {
		assert.False(t, spans[i].start.Before(spans[i-1].end),
			"execution %d started before execution %d ended", i, i-1)
	}
}

func TestExecute_CanceledWhileQueued(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	release := make(chan struct{})
	started := make(chan struct{})
	go f.d.Execute(context.Background(), Request{
		Program: program(func(context.Context, *execution.Context) error {
			close(started)
			<-release
			return nil
		}),
	})
	<-started
	assert.Equal(t, execution.StateRunning, f.d.State())

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	res := f.d.Execute(ctx, Request{
		Program: program(func(context.Context, *execution.Context) error { return nil }),
	})
	assert.False(t, res.IsSuccess)
	assert.Equal(t, execution.StateFailed, res.State)
	assert.Contains(t, res.ErrorMessage, "waiting for the execution gate")

	close(release)
	assert.Eventually(t, func() bool {
		return f.d.State() == execution.StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestExecute_ReadOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{
		ReadOnly: true,
		Program: program(func(ctx context.Context, x *execution.Context) error {
			return x.Transact(ctx, "Create", func(doc host.Document) error {
				_, err := doc.Create(ctx, host.Element{Type: "Wall"})
				return err
			})
		}),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.True(t, res.ReadOnly)
	require.Len(t, res.ErrorDetails, 1)
	assert.Contains(t, res.ErrorDetails[0], "read-only")
	assert.Nil(t, f.d.LastResult())

	n, err := f.doc.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

type stubCompiler struct {
	prog engine.Program
}

func (c stubCompiler) Compile(context.Context, string, []script.File) (engine.Program, error) {
	return c.prog, nil
}

func TestExecute_CompilesAndBindsFiles(t *testing.T) {
	t.Parallel()
	prog := program(func(_ context.Context, x *execution.Context) error {
		count, _ := x.Param("Count")
		length, _ := x.Param("Length")
		x.Printf("%v %.4f\n", count, length)
		return nil
	})
	f := newFixture(t, WithCompiler(stubCompiler{prog: prog}))

	files := []script.File{
		{Name: "Params.cs", Content: `
public class Params {
    public int Count { get; set; } = 3;
    [Unit("ft")]
    public double Length { get; set; } = 1.0;
}`},
		{Name: "main.risor", Content: "nil"},
	}
	res := f.d.Execute(t.Context(), Request{
		ScriptName: "unit",
		Files:      files,
		Parameters: []byte(`{"Length": 2}`),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, "3 2.0000\n", res.Output)

	res = f.d.Execute(t.Context(), Request{
		Files:      files,
		Parameters: []byte(`{"Count": "many"}`),
	})
	assert.False(t, res.IsSuccess)
	assert.Contains(t, res.ErrorMessage, "Count")
}

func TestExecute_RequestErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.d.Execute(t.Context(), Request{ScriptName: "empty"})
	assert.False(t, res.IsSuccess)
	require.ErrorIs(t, res.Err, ErrNoCode)

	res = f.d.Execute(t.Context(), Request{Files: []script.File{{Name: "main.risor"}}})
	require.ErrorIs(t, res.Err, engine.ErrNoProgram)

	res = New(nil, nil).Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { return nil }),
	})
	require.ErrorIs(t, res.Err, ErrNoDocument)
}

func TestExecute_Metrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	f := newFixture(t, WithMetrics(NewMetrics(reg)))

	f.d.Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { return nil }),
	})
	f.d.Execute(t.Context(), Request{
		Program: program(func(context.Context, *execution.Context) error { return errors.New("x") }),
	})

	assert.InDelta(t, 1, testutil.ToFloat64(f.d.metrics.Executions.WithLabelValues(execution.StateCompleted, "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.d.metrics.Executions.WithLabelValues(execution.StateFailed, "false")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(f.d.metrics.Running), 0)
}
