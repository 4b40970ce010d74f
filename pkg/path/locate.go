package path

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Segment identifies the active pair of waypoints for a frame.
// Start == End at the path boundaries.
type Segment struct {
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Progress float64 `json:"progress"`
}

// Progress returns how far frame lies between a and b, clamped to [0, 1].
// A pair that shares a frame has no span and yields ErrDegenerate.
func Progress(a, b Waypoint, frame int) (float64, error) {
	span := b.Frame - a.Frame
	if span <= 0 {
		return 0, fmt.Errorf("%w: waypoints share frame %d", timeline.ErrDegenerate, a.Frame)
	}
	return timeline.Clamp(float64(frame-a.Frame)/float64(span), 0, 1), nil
}

// Locate finds the segment active at frame.
//
// Before the first waypoint the character holds at the start (progress 0);
// at or after the last it holds at the destination (progress 1). Otherwise
// the earliest pair (i, i+1) with path[i].Frame <= frame <= path[i+1].Frame
// wins, and a pair sharing a frame reports progress 1.
func (p *Path) Locate(frame int) Segment {
	n := len(p.waypoints)

	if frame < p.waypoints[0].Frame {
		return Segment{Start: 0, End: 0, Progress: 0}
	}
	if frame >= p.waypoints[n-1].Frame {
		return Segment{Start: n - 1, End: n - 1, Progress: 1}
	}

	for i := 0; i < n-1; i++ {
		a, b := p.waypoints[i], p.waypoints[i+1]
		if frame < a.Frame || frame > b.Frame {
			continue
		}
		progress, err := Progress(a, b, frame)
		if err != nil {
			progress = 1
		}
		return Segment{Start: i, End: i + 1, Progress: progress}
	}

	// Unreachable for a validated path: frame is inside [first, last).
	return Segment{Start: n - 1, End: n - 1, Progress: 1}
}
