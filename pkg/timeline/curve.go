package timeline

import (
	"fmt"
	"sort"
)

// Extrapolation controls a Curve outside its keyframe range.
type Extrapolation string

const (
	// ExtrapolateClamp holds the boundary value.
	ExtrapolateClamp Extrapolation = "clamp"

	// ExtrapolateExtend continues the boundary segment's slope.
	ExtrapolateExtend Extrapolation = "extend"
)

// Curve maps a frame to a value by piecewise-linear interpolation over
// keyframes. Used for camera height drift and title fades.
type Curve struct {
	frames []float64
	values []float64
	left   Extrapolation
	right  Extrapolation
}

// NewCurve validates the keyframes and builds a curve. frames must be
// strictly increasing and match values in length.
func NewCurve(frames, values []float64, left, right Extrapolation) (*Curve, error) {
	if len(frames) < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 keyframes, got %d", ErrInvalidConfig, len(frames))
	}
	if len(frames) != len(values) {
		return nil, fmt.Errorf("%w: curve has %d frames but %d values", ErrInvalidConfig, len(frames), len(values))
	}
	for i := 1; i < len(frames); i++ {
		if frames[i] <= frames[i-1] {
			return nil, fmt.Errorf("%w: curve frames must be strictly increasing (index %d)", ErrInvalidConfig, i)
		}
	}
	for _, e := range []Extrapolation{left, right} {
		switch e {
		case ExtrapolateClamp, ExtrapolateExtend:
		default:
			return nil, fmt.Errorf("%w: unknown extrapolation %q", ErrInvalidConfig, e)
		}
	}

	return &Curve{
		frames: append([]float64(nil), frames...),
		values: append([]float64(nil), values...),
		left:   left,
		right:  right,
	}, nil
}

// At evaluates the curve at frame.
func (c *Curve) At(frame float64) float64 {
	n := len(c.frames)

	if frame < c.frames[0] {
		if c.left == ExtrapolateClamp {
			return c.values[0]
		}
		return c.segment(0, frame)
	}
	if frame > c.frames[n-1] {
		if c.right == ExtrapolateClamp {
			return c.values[n-1]
		}
		return c.segment(n-2, frame)
	}

	idx := sort.Search(n, func(i int) bool {
		return c.frames[i] > frame
	})
	if idx >= n {
		return c.values[n-1]
	}
	return c.segment(idx-1, frame)
}

func (c *Curve) segment(i int, frame float64) float64 {
	t := (frame - c.frames[i]) / (c.frames[i+1] - c.frames[i])
	return Lerp(c.values[i], c.values[i+1], t)
}

// CurveSpec is the serialisable form of a Curve. Empty extrapolation
// defaults to clamp.
type CurveSpec struct {
	Frames []float64     `json:"frames" yaml:"frames"`
	Values []float64     `json:"values" yaml:"values"`
	Left   Extrapolation `json:"left,omitempty" yaml:"left,omitempty"`
	Right  Extrapolation `json:"right,omitempty" yaml:"right,omitempty"`
}

// Curve builds and validates the curve.
func (s CurveSpec) Curve() (*Curve, error) {
	left, right := s.Left, s.Right
	if left == "" {
		left = ExtrapolateClamp
	}
	if right == "" {
		right = ExtrapolateClamp
	}
	return NewCurve(s.Frames, s.Values, left, right)
}
