package path

import (
	"math"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// DirectionEpsilon is the displacement below which a segment is treated as
// stationary when resolving facing.
const DirectionEpsilon = 1e-3

// Placement is the world transform of a character for one frame.
type Placement struct {
	Position timeline.Vec3 `json:"position"`
	Rotation timeline.Vec3 `json:"rotation"`
	IsMoving bool          `json:"is_moving"`
	Segment  Segment       `json:"segment"`
}

// Transform returns the placement as a timeline.Transform.
func (pl Placement) Transform() timeline.Transform {
	return timeline.Transform{Position: pl.Position, Rotation: pl.Rotation}
}

// Interpolate places the character on seg at frame.
//
// X and Z are interpolated linearly; Y is pinned to baseY. Yaw faces the
// segment's movement direction, atan2(dx, dz). When the segment is
// stationary the following segments are scanned until one moves, so a
// character paused at a waypoint already faces where it is going next.
// With no resolvable direction the yaw is 0.
func (p *Path) Interpolate(seg Segment, frame int, baseY float64) Placement {
	a := p.waypoints[seg.Start]
	b := p.waypoints[seg.End]

	return Placement{
		Position: timeline.Vec3{
			X: timeline.Lerp(a.Position.X, b.Position.X, seg.Progress),
			Y: baseY,
			Z: timeline.Lerp(a.Position.Z, b.Position.Z, seg.Progress),
		},
		Rotation: timeline.Vec3{Y: p.facing(seg)},
		IsMoving: p.IsMoving(frame),
		Segment:  seg,
	}
}

// Sample locates and interpolates in one call. A path with fewer than two
// waypoints holds its only waypoint (or the ground origin for a nil path).
func (p *Path) Sample(frame int, baseY float64) Placement {
	switch p.Len() {
	case 0:
		return Placement{Position: timeline.Vec3{Y: baseY}}
	case 1:
		pos := p.waypoints[0].Position
		return Placement{
			Position: timeline.Vec3{X: pos.X, Y: baseY, Z: pos.Z},
			Segment:  p.Locate(frame),
		}
	}
	return p.Interpolate(p.Locate(frame), frame, baseY)
}

// facing returns the yaw for seg, looking ahead past stationary segments.
func (p *Path) facing(seg Segment) float64 {
	dx, dz := displacement(p.waypoints[seg.Start], p.waypoints[seg.End])

	for next := seg.End; stationary(dx, dz) && next+1 < len(p.waypoints); next++ {
		dx, dz = displacement(p.waypoints[next], p.waypoints[next+1])
	}

	if stationary(dx, dz) {
		return 0
	}
	return math.Atan2(dx, dz)
}

func displacement(a, b Waypoint) (dx, dz float64) {
	return b.Position.X - a.Position.X, b.Position.Z - a.Position.Z
}

func stationary(dx, dz float64) bool {
	return math.Abs(dx) < DirectionEpsilon && math.Abs(dz) < DirectionEpsilon
}
