package options

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParameter is returned for a parameter the script does not declare.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrNoProvider is returned when a provider function is requested but absent.
	ErrNoProvider = errors.New("no provider function")

	// ErrNotCallable is returned when a compiled program cannot call members.
	ErrNotCallable = errors.New("program does not expose provider functions")

	// ErrBadProviderResult is returned when a provider returns an unusable value.
	ErrBadProviderResult = errors.New("unexpected provider result")
)

// ProviderError is a failure inside an author-supplied provider function.
// Message is the innermost error message, without wrapping context.
type ProviderError struct {
	Parameter string
	Member    string
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %s", e.Member, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(parameter, member string, err error) *ProviderError {
	return &ProviderError{
		Parameter: parameter,
		Member:    member,
		Message:   innermost(err).Error(),
		Err:       err,
	}
}

// innermost follows single-error wrapping down to the original cause.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
