package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a scene ID is not registered.
	ErrNotFound = errors.New("scene not found")

	// ErrFrameOutOfRange is returned for frames outside [0, DurationFrames).
	ErrFrameOutOfRange = errors.New("frame out of range")
)

// ValidationError points at the field of a scene description that failed
// to build.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
