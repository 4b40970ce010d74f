package timeline

import (
	"fmt"
	"math"
)

// Seconds converts a frame index to seconds at the given frame rate.
func Seconds(frame, fps int) (float64, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps must be positive, got %d", ErrDegenerate, fps)
	}
	return float64(frame) / float64(fps), nil
}

// FramesForSeconds returns the number of whole frames needed to cover the
// given duration, rounding up so audio is never cut short.
func FramesForSeconds(seconds float64, fps int) (int, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps must be positive, got %d", ErrDegenerate, fps)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%w: duration %v", ErrInvalidConfig, seconds)
	}
	// Guard against 6.9*30 = 206.99999999999997 style representation noise.
	frames := seconds * float64(fps)
	if r := math.Round(frames); math.Abs(frames-r) < 1e-9 {
		return int(r), nil
	}
	return int(math.Ceil(frames)), nil
}
