package timeline

import "fmt"

// ActivityWindow is the half-open frame range [Start, Start+Duration) during
// which a discrete state is considered active.
type ActivityWindow struct {
	StartFrame     int `json:"start_frame" yaml:"start"`
	DurationFrames int `json:"duration_frames" yaml:"duration"`
}

// NewActivityWindow validates and returns a window.
func NewActivityWindow(start, duration int) (ActivityWindow, error) {
	w := ActivityWindow{StartFrame: start, DurationFrames: duration}
	if err := w.Validate(); err != nil {
		return ActivityWindow{}, err
	}
	return w, nil
}

// WindowForSeconds builds a window starting at start that covers seconds of
// audio at fps, rounding the length up to whole frames.
func WindowForSeconds(start int, seconds float64, fps int) (ActivityWindow, error) {
	n, err := FramesForSeconds(seconds, fps)
	if err != nil {
		return ActivityWindow{}, err
	}
	return NewActivityWindow(start, n)
}

// Validate checks the window bounds.
func (w ActivityWindow) Validate() error {
	if w.StartFrame < 0 {
		return fmt.Errorf("%w: window start %d is negative", ErrInvalidConfig, w.StartFrame)
	}
	if w.DurationFrames < 0 {
		return fmt.Errorf("%w: window duration %d is negative", ErrInvalidConfig, w.DurationFrames)
	}
	return nil
}

// End returns the first frame after the window.
func (w ActivityWindow) End() int {
	return w.StartFrame + w.DurationFrames
}

// Contains reports whether frame lies inside the window.
func (w ActivityWindow) Contains(frame int) bool {
	return frame >= w.StartFrame && frame < w.End()
}

// Elapsed returns the number of frames since the window opened.
// Negative before the window.
func (w ActivityWindow) Elapsed(frame int) int {
	return frame - w.StartFrame
}

// AnyContains reports whether any window in ws contains frame.
func AnyContains(ws []ActivityWindow, frame int) bool {
	for _, w := range ws {
		if w.Contains(frame) {
			return true
		}
	}
	return false
}

// Active returns the first window containing frame.
func Active(ws []ActivityWindow, frame int) (ActivityWindow, bool) {
	for _, w := range ws {
		if w.Contains(frame) {
			return w, true
		}
	}
	return ActivityWindow{}, false
}
