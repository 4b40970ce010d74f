package character

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Pose is everything the renderer needs to draw a character on one frame.
type Pose struct {
	Name      string             `json:"name"`
	State     State              `json:"state"`
	Clip      string             `json:"clip"`
	ClipTime  float64            `json:"clip_time"`
	Transform timeline.Transform `json:"transform"`
	Scale     float64            `json:"scale"`
	IsMoving  bool               `json:"is_moving"`
}

// Evaluate resolves the character's pose at frame. It reads only the
// immutable configuration, so frames can be evaluated in any order and from
// multiple goroutines.
func (c *Character) Evaluate(frame, fps int) (Pose, error) {
	state := Select(c.Signals(frame))
	cl := c.Clip(state)

	window, ok := timeline.Active(c.cfg.Windows[state], frame)
	if !ok && state == Walking && c.cfg.Path.IsMoving(frame) {
		window = timeline.ActivityWindow{
			StartFrame:     c.cfg.Path.FirstFrame(),
			DurationFrames: c.cfg.Path.LastFrame() - c.cfg.Path.FirstFrame(),
		}
	}
	t, err := cl.TimeAt(frame, fps, window)
	if err != nil {
		return Pose{}, fmt.Errorf("character %q frame %d: %w", c.cfg.Name, frame, err)
	}

	pl := c.Placement(frame)
	return Pose{
		Name:      c.cfg.Name,
		State:     state,
		Clip:      cl.Name,
		ClipTime:  t,
		Transform: pl.Transform(),
		Scale:     c.cfg.Scale,
		IsMoving:  pl.IsMoving,
	}, nil
}
