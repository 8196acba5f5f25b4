package hostfuncs

import (
	"errors"
	"fmt"

	"github.com/space-operator/space-go/status"
)

// ErrNotFound is returned for calls to an unregistered host function.
var ErrNotFound = errors.New("unknown host function")

// NewNotFoundError reports a call to an unregistered host function.
func NewNotFoundError(name string) error {
	return status.Wrap(status.CallFailed, fmt.Errorf("%w: %s", ErrNotFound, name))
}

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return "panic: " + v.Error()
	case string:
		return "panic: " + v
	default:
		return "panic recovered"
	}
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicError reports a recovered panic as a failed call.
func NewPanicError(panicValue any) error {
	return status.Wrap(status.CallFailed, &PanicError{Value: panicValue})
}
