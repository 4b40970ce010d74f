package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by a Scrubber after Close.
	ErrClosed = errors.New("stream closed")

	// ErrNotFound is returned when the server does not know a scene or job.
	ErrNotFound = errors.New("not found")
)

// APIError is an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is makes 404 responses match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// SeekError is a seek the server could not answer.
type SeekError struct {
	Frame   int
	Message string
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("seek %d: %s", e.Frame, e.Message)
}
