// Package finitestate wraps go-fsm for the two kinds of machines in the
// server: the lifecycle of each long-running component and the state of a
// single script execution.
package finitestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

const (
	StatusNew      = fsm.StatusNew
	StatusBooting  = fsm.StatusBooting
	StatusRunning  = fsm.StatusRunning
	StatusStopping = fsm.StatusStopping
	StatusStopped  = fsm.StatusStopped
	StatusError    = fsm.StatusError
)

// TypicalTransitions is the lifecycle of the host thread, the RPC server and
// the notification publisher.
var TypicalTransitions = fsm.TypicalTransitions

// broadcastTimeout bounds how long a state change waits for a slow
// subscriber.
const broadcastTimeout = 5 * time.Second

// Machine is the subset of go-fsm the runners and the dispatcher use.
type Machine interface {
	Transition(state string) error
	TransitionIfCurrentState(currentState, newState string) error
	SetState(state string) error
	GetState() string

	// GetStateChan emits every state change until ctx is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// syncMachine delivers state changes synchronously, so a subscriber waiting
// for Stopped or for a terminal execution state does not miss it.
type syncMachine struct {
	*fsm.Machine
}

func (m *syncMachine) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanWithOptions(ctx, fsm.WithSyncTimeout(broadcastTimeout))
}

// New creates a component lifecycle machine starting in StatusNew.
func New(handler slog.Handler) (Machine, error) {
	return NewWithTransitions(handler, StatusNew, TypicalTransitions)
}

// NewWithTransitions creates a machine over a custom state graph, such as the
// Idle, Queued, Running graph of an execution.
func NewWithTransitions(handler slog.Handler, initial string, transitions map[string][]string) (Machine, error) {
	m, err := fsm.New(handler, initial, transitions)
	if err != nil {
		return nil, err
	}
	return &syncMachine{Machine: m}, nil
}
