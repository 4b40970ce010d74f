package timeline

import "errors"

var (
	// ErrDegenerate is returned when a query would otherwise divide by zero
	// or produce NaN/Inf (zero fps, zero-length repeat clip, zero-span segment).
	ErrDegenerate = errors.New("degenerate input")

	// ErrInvalidConfig is returned when configuration is rejected at
	// construction time.
	ErrInvalidConfig = errors.New("invalid configuration")
)
