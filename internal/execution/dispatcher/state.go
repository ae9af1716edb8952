package dispatcher

import (
	"github.com/Sey56/Paracore-sub001/internal/execution"
)

// Transitions is the state graph of one execution. Every terminal state
// returns to Idle once the gate is released.
var Transitions = map[string][]string{
	execution.StateIdle:      {execution.StateQueued},
	execution.StateQueued:    {execution.StateRunning, execution.StateFailed},
	execution.StateRunning:   {execution.StateCompleted, execution.StateFailed, execution.StateTimedOut},
	execution.StateCompleted: {execution.StateIdle},
	execution.StateFailed:    {execution.StateIdle},
	execution.StateTimedOut:  {execution.StateIdle},
}

// State reports the dispatcher state: the state of the execution holding the
// gate, Queued when executions are only waiting, and Idle otherwise.
func (d *Dispatcher) State() string {
	if r := d.current.Load(); r != nil {
		return r.fsm.GetState()
	}
	if d.waiting.Load() > 0 {
		return execution.StateQueued
	}
	return execution.StateIdle
}

// LastResult returns the result of the most recent execution that was not
// read-only, or nil.
func (d *Dispatcher) LastResult() *execution.Result {
	return d.last.Load()
}
