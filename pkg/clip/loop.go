// Package clip converts render frames into clip-local animation time.
//
// Two mappings are provided: Normalize, a uniform speed multiplier with
// wrap/clamp looping, and MapTime, a two-phase speed profile for authored
// transitions such as a wave that snaps up quickly and then settles. Both are
// pure functions of their arguments.
package clip

import (
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// LoopMode is the policy for clip time beyond the clip duration.
type LoopMode int

const (
	// Repeat wraps time modulo the clip duration.
	Repeat LoopMode = iota

	// Once holds the last frame of the clip.
	Once
)

// String returns the mode name used in scene files.
func (m LoopMode) String() string {
	switch m {
	case Repeat:
		return "repeat"
	case Once:
		return "once"
	default:
		return "unknown"
	}
}

// ParseLoopMode parses "repeat" or "once" (case-insensitive).
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "repeat", "loop", "":
		return Repeat, nil
	case "once", "clamp":
		return Once, nil
	default:
		return Repeat, fmt.Errorf("%w: unknown loop mode %q", timeline.ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m LoopMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *LoopMode) UnmarshalText(b []byte) error {
	mode, err := ParseLoopMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Wrap applies the loop policy to a clip time.
//
// Repeat returns a value in [0, duration) and fails with ErrDegenerate when
// duration <= 0. Once returns a value in [0, duration].
func Wrap(t, duration float64, mode LoopMode) (float64, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: clip time %v", timeline.ErrDegenerate, t)
	}

	switch mode {
	case Repeat:
		if duration <= 0 {
			return 0, fmt.Errorf("%w: repeat clip has duration %v", timeline.ErrDegenerate, duration)
		}
		r := math.Mod(t, duration)
		if r < 0 {
			r += duration
		}
		// r+duration can round up to exactly duration for tiny negative r.
		if r >= duration {
			r = 0
		}
		return r, nil

	case Once:
		if duration < 0 {
			return 0, fmt.Errorf("%w: clip has negative duration %v", timeline.ErrDegenerate, duration)
		}
		return timeline.Clamp(t, 0, duration), nil

	default:
		return 0, fmt.Errorf("%w: unknown loop mode %d", timeline.ErrInvalidConfig, int(mode))
	}
}

// Normalize returns the clip-local time for a global frame.
//
//	t = (frame / fps) * speed
//
// then Wrap with the clip duration and mode. The result depends only on the
// arguments, so re-rendering a frame always reproduces the same value.
func Normalize(frame, fps int, speed, duration float64, mode LoopMode) (float64, error) {
	seconds, err := timeline.Seconds(frame, fps)
	if err != nil {
		return 0, err
	}
	return Wrap(seconds*speed, duration, mode)
}
