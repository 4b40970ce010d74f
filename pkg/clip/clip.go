package clip

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Clip describes one animation clip bound to a character state.
type Clip struct {
	// Name identifies the clip asset (e.g. "autonate-waving").
	Name string `json:"name" yaml:"name"`

	// Duration is the clip length in seconds.
	Duration float64 `json:"duration" yaml:"duration"`

	// Loop is the policy beyond Duration.
	Loop LoopMode `json:"loop" yaml:"loop"`

	// Speed multiplies playback for uniformly-timed clips (1.0 = normal).
	Speed float64 `json:"speed" yaml:"speed"`

	// Profile, when set, times the clip from the start of its activity
	// window with a two-phase speed curve instead of Speed.
	Profile *SpeedProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Validate rejects clips that could never produce a time.
func (c Clip) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("%w: clip %q has negative duration", timeline.ErrInvalidConfig, c.Name)
	}
	if c.Loop == Repeat && c.Duration == 0 {
		return fmt.Errorf("%w: repeating clip %q has zero duration", timeline.ErrInvalidConfig, c.Name)
	}
	if c.Profile != nil {
		return c.Profile.Validate()
	}
	if c.Speed <= 0 {
		return fmt.Errorf("%w: clip %q speed %v must be positive", timeline.ErrInvalidConfig, c.Name, c.Speed)
	}
	return nil
}

// TimeAt returns the clip-local time at frame.
//
// Profiled clips count from window.StartFrame; before the window they sit at
// time 0. Other clips run off the global frame so every clip keeps animating
// in the background and state switches never restart a loop.
func (c Clip) TimeAt(frame, fps int, window timeline.ActivityWindow) (float64, error) {
	if c.Profile == nil {
		return Normalize(frame, fps, c.Speed, c.Duration, c.Loop)
	}

	elapsed := window.Elapsed(frame)
	if elapsed < 0 {
		elapsed = 0
	}
	t, err := MapTime(elapsed, fps, *c.Profile)
	if err != nil {
		return 0, err
	}
	return Wrap(t, c.Duration, c.Loop)
}
