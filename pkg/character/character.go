package character

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/clip"
	"github.com/teslashibe/go-autonate/pkg/path"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Config describes a character for one scene.
type Config struct {
	// Name identifies the character in the scene.
	Name string

	// Clips maps each state to its animation clip. Idle is required; states
	// without a clip fall back to Idle's.
	Clips map[State]clip.Clip

	// Windows lists the activity windows per state. Walking is also active
	// whenever Path reports movement.
	Windows map[State][]timeline.ActivityWindow

	// Path, when set, drives placement. Otherwise Position/Rotation are used.
	Path *path.Path

	// BaseY is the ground height used for path placement.
	BaseY float64

	// Position and Rotation place a character that has no path.
	Position timeline.Vec3
	Rotation timeline.Vec3

	// Scale is the uniform model scale.
	Scale float64
}

// Character is a validated, immutable character configuration.
type Character struct {
	cfg Config
}

// New validates cfg and returns a Character. The maps and path are copied so
// later changes to cfg do not leak in.
func New(cfg Config) (*Character, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: character name required", timeline.ErrInvalidConfig)
	}
	if _, ok := cfg.Clips[Idle]; !ok {
		return nil, fmt.Errorf("%w: character %q has no idle clip", timeline.ErrInvalidConfig, cfg.Name)
	}
	if cfg.Scale < 0 {
		return nil, fmt.Errorf("%w: character %q has negative scale", timeline.ErrInvalidConfig, cfg.Name)
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	clips := make(map[State]clip.Clip, len(cfg.Clips))
	for s, c := range cfg.Clips {
		if s < 0 || s >= numStates {
			return nil, fmt.Errorf("%w: character %q has clip for unknown state %d", timeline.ErrInvalidConfig, cfg.Name, int(s))
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("character %q %s clip: %w", cfg.Name, s, err)
		}
		clips[s] = c
	}

	windows := make(map[State][]timeline.ActivityWindow, len(cfg.Windows))
	for s, ws := range cfg.Windows {
		for _, w := range ws {
			if err := w.Validate(); err != nil {
				return nil, fmt.Errorf("character %q %s window: %w", cfg.Name, s, err)
			}
		}
		windows[s] = append([]timeline.ActivityWindow(nil), ws...)
	}

	cfg.Clips = clips
	cfg.Windows = windows
	return &Character{cfg: cfg}, nil
}

// Name returns the character name.
func (c *Character) Name() string {
	return c.cfg.Name
}

// Scale returns the uniform model scale.
func (c *Character) Scale() float64 {
	return c.cfg.Scale
}

// Path returns the character's path, or nil.
func (c *Character) Path() *path.Path {
	return c.cfg.Path
}

// Clip returns the clip played for s, falling back to Idle's clip.
func (c *Character) Clip(s State) clip.Clip {
	if cl, ok := c.cfg.Clips[s]; ok {
		return cl
	}
	return c.cfg.Clips[Idle]
}

// Windows returns a copy of the activity windows for s.
func (c *Character) Windows(s State) []timeline.ActivityWindow {
	return append([]timeline.ActivityWindow(nil), c.cfg.Windows[s]...)
}

// Signals computes the requested states at frame from the activity windows
// and path movement.
func (c *Character) Signals(frame int) Signals {
	var sig Signals
	for s, ws := range c.cfg.Windows {
		if timeline.AnyContains(ws, frame) {
			sig = sig.With(s)
		}
	}
	if c.cfg.Path.IsMoving(frame) {
		sig = sig.With(Walking)
	}
	return sig
}

// Placement returns the world transform at frame.
func (c *Character) Placement(frame int) path.Placement {
	if c.cfg.Path == nil {
		return path.Placement{Position: c.cfg.Position, Rotation: c.cfg.Rotation}
	}
	return c.cfg.Path.Sample(frame, c.cfg.BaseY)
}
