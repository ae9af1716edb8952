package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
)

// StubDispatcher completes every request without running anything. The
// output of a result is the raw parameter JSON of its request, which lets
// transport tests check that values survive the round trip.
type StubDispatcher struct {
	mu       sync.Mutex
	requests []dispatcher.Request
	last     *execution.Result

	// Fail, when set, turns every result into a failure with this message.
	Fail string
}

// Execute records req and returns a completed or failed result.
func (d *StubDispatcher) Execute(_ context.Context, req dispatcher.Request) *execution.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)

	res := &execution.Result{
		ExecutionID:      uuid.Must(uuid.NewV6()).String(),
		ScriptName:       req.ScriptName,
		IsSuccess:        d.Fail == "",
		ErrorMessage:     d.Fail,
		Output:           string(req.Parameters),
		ErrorDetails:     []string{},
		StructuredOutput: []execution.StructuredItem{},
		State:            execution.StateCompleted,
		ReadOnly:         req.ReadOnly,
		StartedAt:        time.Now(),
	}
	if d.Fail != "" {
		res.State = execution.StateFailed
	}
	if !req.ReadOnly {
		d.last = res
	}
	return res
}

// LastResult returns the last non read-only result.
func (d *StubDispatcher) LastResult() *execution.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Requests returns a copy of every request seen so far.
func (d *StubDispatcher) Requests() []dispatcher.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dispatcher.Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// State reports the dispatcher as idle.
func (d *StubDispatcher) State() string {
	return execution.StateIdle
}
