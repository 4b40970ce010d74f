package character

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-autonate/pkg/clip"
	"github.com/teslashibe/go-autonate/pkg/path"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

const fps = 30

func autonateClips() map[State]clip.Clip {
	return map[State]clip.Clip{
		Idle:    {Name: "autonate-idle", Duration: 2.0, Loop: clip.Repeat, Speed: 1},
		Talking: {Name: "autonate-talking", Duration: 3.0, Loop: clip.Repeat, Speed: 1},
		Walking: {Name: "autonate-walking", Duration: 1.0, Loop: clip.Repeat, Speed: 1},
		Waving: {
			Name:     "autonate-waving",
			Duration: 2.5,
			Loop:     clip.Once,
			Profile:  &clip.SpeedProfile{ClipSplitTime: 1.2, FastMultiplier: 3.0, SlowMultiplier: 0.7},
		},
	}
}

func newWalker(t *testing.T) *Character {
	t.Helper()

	p, err := path.New(
		path.Waypoint{Position: timeline.V3(0, 0, 1.3), Frame: 0},
		path.Waypoint{Position: timeline.V3(2, 0, 1.3), Frame: 60},
		path.Waypoint{Position: timeline.V3(2, 0, -1), Frame: 120},
	)
	require.NoError(t, err)

	c, err := New(Config{
		Name:  "autonate",
		Clips: autonateClips(),
		Windows: map[State][]timeline.ActivityWindow{
			Talking: {{StartFrame: 150, DurationFrames: 208}},
			Waving:  {{StartFrame: 120, DurationFrames: 60}},
		},
		Path:  p,
		BaseY: -4.1,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Clips: autonateClips()})
	assert.ErrorIs(t, err, timeline.ErrInvalidConfig, "name required")

	_, err = New(Config{Name: "x", Clips: map[State]clip.Clip{Talking: autonateClips()[Talking]}})
	assert.ErrorIs(t, err, timeline.ErrInvalidConfig, "idle clip required")

	bad := autonateClips()
	bad[Walking] = clip.Clip{Name: "broken", Duration: 0, Loop: clip.Repeat, Speed: 1}
	_, err = New(Config{Name: "x", Clips: bad})
	assert.ErrorIs(t, err, timeline.ErrInvalidConfig)

	_, err = New(Config{
		Name:    "x",
		Clips:   autonateClips(),
		Windows: map[State][]timeline.ActivityWindow{Talking: {{StartFrame: 0, DurationFrames: -5}}},
	})
	assert.ErrorIs(t, err, timeline.ErrInvalidConfig)

	_, err = New(Config{Name: "x", Clips: autonateClips(), Scale: -1})
	assert.ErrorIs(t, err, timeline.ErrInvalidConfig)
}

func TestEvaluate_StateTimeline(t *testing.T) {
	c := newWalker(t)

	tests := []struct {
		frame int
		want  State
	}{
		{0, Walking},
		{30, Walking},
		{119, Walking},
		{120, Waving},
		{179, Waving},
		{180, Talking},
		{150 + 207, Talking},
		{150 + 208, Idle},
	}

	for _, tc := range tests {
		pose, err := c.Evaluate(tc.frame, fps)
		require.NoError(t, err)
		if pose.State != tc.want {
			t.Errorf("frame %d: state %s, want %s", tc.frame, pose.State, tc.want)
		}
	}
}

func TestEvaluate_WalkingPlacement(t *testing.T) {
	c := newWalker(t)

	pose, err := c.Evaluate(30, fps)
	require.NoError(t, err)

	assert.Equal(t, "autonate-walking", pose.Clip)
	assert.InDelta(t, 0.0, pose.ClipTime, 1e-12, "1.0s walk cycle wraps at frame 30")
	assert.True(t, pose.Transform.Position.ApproxEqual(timeline.V3(1, -4.1, 1.3), 1e-12))
	assert.InDelta(t, math.Pi/2, pose.Transform.Rotation.Y, 1e-12)
	assert.True(t, pose.IsMoving)
	assert.Equal(t, 1.0, pose.Scale)
}

func TestEvaluate_WaveUsesProfile(t *testing.T) {
	c := newWalker(t)

	pose, err := c.Evaluate(120+30, fps)
	require.NoError(t, err)
	// Talking opens at 150 too, but waving outranks it.
	assert.Equal(t, Waving, pose.State)
	assert.InDelta(t, 1.62, pose.ClipTime, 1e-9)
	assert.False(t, pose.IsMoving)
}

func TestEvaluate_StaticCharacter(t *testing.T) {
	c, err := New(Config{
		Name:     "bob",
		Clips:    autonateClips(),
		Position: timeline.V3(-1.5, 0, 0),
		Rotation: timeline.V3(0, 0.3, 0),
	})
	require.NoError(t, err)

	pose, err := c.Evaluate(90, fps)
	require.NoError(t, err)
	assert.Equal(t, Idle, pose.State)
	assert.Equal(t, 1.0, pose.ClipTime)
	assert.Equal(t, timeline.V3(-1.5, 0, 0), pose.Transform.Position)
	assert.Equal(t, 0.3, pose.Transform.Rotation.Y)
}

func TestEvaluate_MissingClipFallsBackToIdle(t *testing.T) {
	c, err := New(Config{
		Name:    "alice",
		Clips:   map[State]clip.Clip{Idle: {Name: "alice-idle", Duration: 4, Speed: 1}},
		Windows: map[State][]timeline.ActivityWindow{Talking: {{StartFrame: 0, DurationFrames: 30}}},
	})
	require.NoError(t, err)

	pose, err := c.Evaluate(10, fps)
	require.NoError(t, err)
	assert.Equal(t, Talking, pose.State)
	assert.Equal(t, "alice-idle", pose.Clip)
}

func TestEvaluate_ConfigIsCopied(t *testing.T) {
	windows := map[State][]timeline.ActivityWindow{Talking: {{StartFrame: 0, DurationFrames: 30}}}
	c, err := New(Config{Name: "x", Clips: autonateClips(), Windows: windows})
	require.NoError(t, err)

	windows[Talking][0].DurationFrames = 0
	delete(windows, Talking)

	pose, err := c.Evaluate(10, fps)
	require.NoError(t, err)
	assert.Equal(t, Talking, pose.State)
}

func TestEvaluate_DegenerateFPS(t *testing.T) {
	c := newWalker(t)

	_, err := c.Evaluate(10, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, timeline.ErrDegenerate)
	assert.Contains(t, err.Error(), `character "autonate"`)
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	c := newWalker(t)

	const frames = 400
	want := make([]Pose, frames)
	for f := 0; f < frames; f++ {
		p, err := c.Evaluate(f, fps)
		require.NoError(t, err)
		want[f] = p
	}

	got := make([]Pose, frames)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for f := frames - 1 - w; f >= 0; f -= 4 {
				p, err := c.Evaluate(f, fps)
				if err != nil {
					t.Error(err)
					return
				}
				got[f] = p
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, want, got)
}

func TestPose_JSON(t *testing.T) {
	c := newWalker(t)
	pose, err := c.Evaluate(130, fps)
	require.NoError(t, err)

	data, err := json.Marshal(pose)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"waving"`)
}
