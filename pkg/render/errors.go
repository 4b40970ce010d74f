package render

import "errors"

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotFinished is returned when asking for the frames of a job that
	// has not completed.
	ErrJobNotFinished = errors.New("job not finished")

	// ErrInvalidRange is returned for an empty or reversed frame range.
	ErrInvalidRange = errors.New("invalid frame range")
)
