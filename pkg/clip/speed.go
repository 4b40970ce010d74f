package clip

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// SpeedProfile maps real seconds inside an activity window to clip seconds in
// two phases: the clip runs at FastMultiplier until it reaches ClipSplitTime,
// then at SlowMultiplier.
type SpeedProfile struct {
	ClipSplitTime  float64 `json:"clip_split_time" yaml:"split"`
	FastMultiplier float64 `json:"fast_multiplier" yaml:"fast"`
	SlowMultiplier float64 `json:"slow_multiplier" yaml:"slow"`
}

// NewSpeedProfile validates and returns a profile.
func NewSpeedProfile(split, fast, slow float64) (SpeedProfile, error) {
	p := SpeedProfile{ClipSplitTime: split, FastMultiplier: fast, SlowMultiplier: slow}
	if err := p.Validate(); err != nil {
		return SpeedProfile{}, err
	}
	return p, nil
}

// Validate checks that both multipliers are positive and the split is not
// negative.
func (p SpeedProfile) Validate() error {
	if p.ClipSplitTime < 0 {
		return fmt.Errorf("%w: speed profile split %v is negative", timeline.ErrInvalidConfig, p.ClipSplitTime)
	}
	if p.FastMultiplier <= 0 {
		return fmt.Errorf("%w: fast multiplier %v must be positive", timeline.ErrInvalidConfig, p.FastMultiplier)
	}
	if p.SlowMultiplier <= 0 {
		return fmt.Errorf("%w: slow multiplier %v must be positive", timeline.ErrInvalidConfig, p.SlowMultiplier)
	}
	return nil
}

// FastPhaseDuration is the real time spent in the fast phase.
func (p SpeedProfile) FastPhaseDuration() float64 {
	return p.ClipSplitTime / p.FastMultiplier
}

// ClipTime maps real seconds to clip seconds. The mapping is continuous at
// the phase boundary, where both branches equal ClipSplitTime.
func (p SpeedProfile) ClipTime(realSeconds float64) float64 {
	fastReal := p.FastPhaseDuration()
	if realSeconds <= fastReal {
		return realSeconds * p.FastMultiplier
	}
	return p.ClipSplitTime + (realSeconds-fastReal)*p.SlowMultiplier
}

// MapTime converts frames elapsed since an activity window opened into clip
// seconds. No loop policy is applied; combine with Wrap when needed.
func MapTime(elapsedFrames, fps int, profile SpeedProfile) (float64, error) {
	if err := profile.Validate(); err != nil {
		return 0, err
	}
	if elapsedFrames < 0 {
		return 0, fmt.Errorf("%w: %d frames before the activity window", timeline.ErrDegenerate, -elapsedFrames)
	}
	seconds, err := timeline.Seconds(elapsedFrames, fps)
	if err != nil {
		return 0, err
	}
	return profile.ClipTime(seconds), nil
}
