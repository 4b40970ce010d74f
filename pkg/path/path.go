// Package path moves a character along a timed sequence of waypoints.
//
// A Path is validated once when it is built and never mutated afterwards, so
// Locate and Sample can be called for any frame, in any order, from any
// number of goroutines.
package path

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Waypoint is a position the character must reach by Frame.
type Waypoint struct {
	Position timeline.Vec3 `json:"position" yaml:"position"`
	Frame    int           `json:"frame" yaml:"frame"`
}

// Path is an immutable, frame-ordered list of waypoints.
type Path struct {
	waypoints []Waypoint
}

// New validates the waypoints and builds a Path.
// At least one waypoint is required; frames must be non-negative and
// non-decreasing.
func New(waypoints ...Waypoint) (*Path, error) {
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("%w: path needs at least one waypoint", timeline.ErrInvalidConfig)
	}
	for i, wp := range waypoints {
		if wp.Frame < 0 {
			return nil, fmt.Errorf("%w: waypoint %d has negative frame %d", timeline.ErrInvalidConfig, i, wp.Frame)
		}
		if i > 0 && wp.Frame < waypoints[i-1].Frame {
			return nil, fmt.Errorf("%w: waypoint %d frame %d precedes waypoint %d frame %d",
				timeline.ErrInvalidConfig, i, wp.Frame, i-1, waypoints[i-1].Frame)
		}
	}

	return &Path{waypoints: append([]Waypoint(nil), waypoints...)}, nil
}

// Len returns the number of waypoints. A nil Path has none.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.waypoints)
}

// At returns waypoint i.
func (p *Path) At(i int) Waypoint {
	return p.waypoints[i]
}

// Waypoints returns a copy of the waypoint list.
func (p *Path) Waypoints() []Waypoint {
	if p == nil {
		return nil
	}
	return append([]Waypoint(nil), p.waypoints...)
}

// FirstFrame returns the arrival frame of the first waypoint.
func (p *Path) FirstFrame() int {
	return p.waypoints[0].Frame
}

// LastFrame returns the arrival frame of the last waypoint.
func (p *Path) LastFrame() int {
	return p.waypoints[len(p.waypoints)-1].Frame
}

// IsMoving reports whether frame lies in [FirstFrame, LastFrame).
// Paths with fewer than two waypoints never move.
func (p *Path) IsMoving(frame int) bool {
	if p.Len() < 2 {
		return false
	}
	return frame >= p.FirstFrame() && frame < p.LastFrame()
}
