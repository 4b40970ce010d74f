// Package camera computes the virtual camera for each frame of a scene.
//
// A camera either follows a target (typically a character's position) with
// optional smoothing, or stays fixed. Smoothing is expressed as a fold over
// every frame from zero, so the shot at any frame depends only on the frame
// number and the rig configuration.
package camera

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Mode selects how the camera is positioned.
type Mode string

const (
	// ModeFollow keeps the camera at Offset from the target.
	ModeFollow Mode = "follow"

	// ModeFixed keeps the camera at Position.
	ModeFixed Mode = "fixed"
)

// Config holds all camera rig parameters.
type Config struct {
	// Mode is "follow" or "fixed".
	Mode Mode `json:"mode" yaml:"mode"`

	// Target names the character to follow in follow mode.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Offset is the camera position relative to the target.
	Offset timeline.Vec3 `json:"offset" yaml:"offset"`

	// LookAtOffset is added to the target to get the look-at point.
	LookAtOffset timeline.Vec3 `json:"look_at_offset" yaml:"look_at_offset"`

	// Smoothing is the per-frame lerp factor toward the desired position.
	// 0 and 1 both mean rigid follow.
	Smoothing float64 `json:"smoothing" yaml:"smoothing"`

	// Position is the fixed camera position, and the starting position of a
	// smoothed follow camera.
	Position timeline.Vec3 `json:"position" yaml:"position"`

	// LookAt is the fixed look-at point. Ignored when Rotation is set.
	LookAt *timeline.Vec3 `json:"look_at,omitempty" yaml:"look_at,omitempty"`

	// Rotation is an explicit Euler rotation for a fixed camera.
	Rotation *timeline.Vec3 `json:"rotation,omitempty" yaml:"rotation,omitempty"`

	// FOV is the vertical field of view in degrees.
	FOV float64 `json:"fov" yaml:"fov"`

	// Height, when set, is added to the camera's Y on every frame.
	Height *timeline.CurveSpec `json:"height,omitempty" yaml:"height,omitempty"`
}

// Limits for field of view, in degrees.
const (
	MinFOV = 1.0
	MaxFOV = 170.0
)

// DefaultConfig returns a rigid follow camera two units up and five back.
func DefaultConfig() Config {
	return Config{
		Mode:      ModeFollow,
		Offset:    timeline.V3(0, 2, 5),
		Smoothing: 0.1,
		Position:  timeline.V3(0, 2, 5),
		FOV:       50,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	switch c.Mode {
	case ModeFollow, ModeFixed:
	default:
		errors = append(errors, fmt.Sprintf("mode must be follow or fixed, got %q", c.Mode))
	}

	if c.Smoothing < 0 || c.Smoothing > 1 {
		errors = append(errors, "smoothing must be between 0 and 1")
	}

	if c.FOV < MinFOV || c.FOV > MaxFOV {
		errors = append(errors, fmt.Sprintf("fov must be between %g and %g", MinFOV, MaxFOV))
	}

	if c.Height != nil {
		if _, err := c.Height.Curve(); err != nil {
			errors = append(errors, "height: "+err.Error())
		}
	}

	return errors
}
