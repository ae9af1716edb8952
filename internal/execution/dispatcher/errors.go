package dispatcher

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoDocument is returned when the dispatcher has no host document.
	ErrNoDocument = errors.New("no host document")

	// ErrNoCode is returned for requests with neither a program nor files.
	ErrNoCode = errors.New("request has no program and no script files")

	// ErrAlreadyExtended is returned when a script extends its timeout twice.
	ErrAlreadyExtended = errors.New("timeout has already been extended")

	// ErrExtensionTooLong is returned when an extension exceeds the configured cap.
	ErrExtensionTooLong = errors.New("timeout extension exceeds the maximum")

	// ErrDeadlinePassed is returned when an extension arrives after the deadline.
	ErrDeadlinePassed = errors.New("deadline has already passed")

	// ErrAbandoned is returned when the caller stops waiting for a running script.
	ErrAbandoned = errors.New("caller stopped waiting for the script")

	// ErrPanic matches every PanicError.
	ErrPanic = errors.New("script panicked")
)

// PanicError is a panic raised by a script, recovered on the host thread.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("script panicked: %v", e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrPanic }

// TimeoutError reports a run that exceeded its deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf(
		"script execution timed out after %s; call ExtendTimeout before long-running work to allow more time",
		budgetText(e.After),
	)
}

// budgetText spells whole-second budgets in seconds and anything else as a
// duration, so sub-second budgets are not reported as zero.
func budgetText(d time.Duration) string {
	d = d.Round(time.Millisecond)
	switch {
	case d == time.Second:
		return "1 second"
	case d > 0 && d%time.Second == 0:
		return fmt.Sprintf("%d seconds", d/time.Second)
	default:
		return d.String()
	}
}
