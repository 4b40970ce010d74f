package camera

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Shot is the camera placement for one frame.
type Shot struct {
	Position timeline.Vec3  `json:"position"`
	LookAt   *timeline.Vec3 `json:"look_at,omitempty"`
	Rotation *timeline.Vec3 `json:"rotation,omitempty"`
	FOV      float64        `json:"fov"`
}

// Follow places a camera at target+offset looking at target+lookAtOffset.
func Follow(target, offset, lookAtOffset timeline.Vec3) Shot {
	look := target.Add(lookAtOffset)
	return Shot{
		Position: target.Add(offset),
		LookAt:   &look,
	}
}

// TargetFunc reports the followed target's position at a frame.
type TargetFunc func(frame int) timeline.Vec3

// Rig is a validated camera configuration.
type Rig struct {
	cfg    Config
	height *timeline.Curve
}

// NewRig validates cfg and returns a Rig.
func NewRig(cfg Config) (*Rig, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: camera: %s", timeline.ErrInvalidConfig, strings.Join(problems, "; "))
	}

	r := &Rig{cfg: cfg}
	if cfg.Height != nil {
		c, err := cfg.Height.Curve()
		if err != nil {
			return nil, err
		}
		r.height = c
	}
	return r, nil
}

// Config returns the rig's configuration.
func (r *Rig) Config() Config {
	return r.cfg
}

// ShotAt returns the camera for frame. target may be nil for a fixed rig.
//
// A smoothed follow camera starts at Position and moves Smoothing of the way
// toward target+Offset on every frame from 0 through frame, so the result is
// the same no matter which frames were computed before.
func (r *Rig) ShotAt(frame int, target TargetFunc) Shot {
	var shot Shot
	if r.cfg.Mode == ModeFixed || target == nil {
		shot = r.fixed()
	} else {
		shot = r.follow(frame, target)
	}

	shot.FOV = r.cfg.FOV
	if r.height != nil {
		shot.Position.Y += r.height.At(float64(frame))
	}
	return shot
}

func (r *Rig) fixed() Shot {
	shot := Shot{Position: r.cfg.Position}
	if r.cfg.Rotation != nil {
		rot := *r.cfg.Rotation
		shot.Rotation = &rot
	} else if r.cfg.LookAt != nil {
		look := *r.cfg.LookAt
		shot.LookAt = &look
	}
	return shot
}

func (r *Rig) follow(frame int, target TargetFunc) Shot {
	if frame < 0 {
		frame = 0
	}
	shot := Follow(target(frame), r.cfg.Offset, r.cfg.LookAtOffset)

	s := r.cfg.Smoothing
	if s == 0 || s == 1 {
		return shot
	}

	pos := r.cfg.Position
	for f := 0; f <= frame; f++ {
		pos = pos.Lerp(target(f).Add(r.cfg.Offset), s)
	}
	shot.Position = pos
	return shot
}
