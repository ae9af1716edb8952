package execution

import (
	"encoding/json"
	"time"
)

// Execution states. Idle is the dispatcher's resting state; the last three
// are terminal for a single execution.
const (
	StateIdle      = "Idle"
	StateQueued    = "Queued"
	StateRunning   = "Running"
	StateCompleted = "Completed"
	StateFailed    = "Failed"
	StateTimedOut  = "TimedOut"
)

// StructuredItem is one typed, renderable output item such as a table or chart.
type StructuredItem struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Result is the outcome of one execution.
type Result struct {
	ExecutionID      string           `json:"executionId"`
	ScriptName       string           `json:"scriptName"`
	IsSuccess        bool             `json:"isSuccess"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
	ErrorDetails     []string         `json:"errorDetails"`
	Output           string           `json:"output"`
	StructuredOutput []StructuredItem `json:"structuredOutput"`
	InternalData     string           `json:"internalData,omitempty"`
	State            string           `json:"state"`
	ReadOnly         bool             `json:"isReadOnly"`
	StartedAt        time.Time        `json:"startedAt"`
	Duration         time.Duration    `json:"duration"`

	// Err is the error behind a failed result, kept for callers in-process.
	Err error `json:"-"`
}

// NewFailure builds a failed result that never reached the host.
func NewFailure(id, scriptName string, err error) *Result {
	return &Result{
		ExecutionID:      id,
		ScriptName:       scriptName,
		ErrorMessage:     err.Error(),
		ErrorDetails:     []string{},
		StructuredOutput: []StructuredItem{},
		State:            StateFailed,
		Err:              err,
	}
}
