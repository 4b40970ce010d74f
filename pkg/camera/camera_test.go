package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

func still(p timeline.Vec3) TargetFunc {
	return func(int) timeline.Vec3 { return p }
}

func TestFollow(t *testing.T) {
	shot := Follow(timeline.V3(0, -4.1, 1.3), timeline.V3(0, 2, 4), timeline.V3(0, 1, 0))

	assert.True(t, shot.Position.ApproxEqual(timeline.V3(0, -2.1, 5.3), 1e-12))
	require.NotNil(t, shot.LookAt)
	assert.True(t, shot.LookAt.ApproxEqual(timeline.V3(0, -3.1, 1.3), 1e-12))
}

func TestRig_RigidFollowTracksTarget(t *testing.T) {
	rig, err := NewRig(WideConfig())
	require.NoError(t, err)

	target := func(f int) timeline.Vec3 { return timeline.V3(float64(f)/10, 0, 0) }
	for _, f := range []int{0, 7, 42} {
		shot := rig.ShotAt(f, target)
		assert.Equal(t, timeline.V3(float64(f)/10, 2, 5), shot.Position, "frame %d", f)
		assert.Equal(t, 50.0, shot.FOV)
	}
}

func TestRig_SmoothingIsAFoldFromFrameZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Offset = timeline.V3(0, 0, 8)
	cfg.Position = timeline.V3(0, 0, 0)
	cfg.Smoothing = 0.5

	rig, err := NewRig(cfg)
	require.NoError(t, err)

	target := still(timeline.V3(0, 0, 0))
	assert.Equal(t, 4.0, rig.ShotAt(0, target).Position.Z)
	assert.Equal(t, 6.0, rig.ShotAt(1, target).Position.Z)
	assert.Equal(t, 7.0, rig.ShotAt(2, target).Position.Z)
	assert.Equal(t, 4.0, rig.ShotAt(-5, target).Position.Z, "negative frames clamp to 0")
}

func TestRig_OrderIndependent(t *testing.T) {
	rig, err := NewRig(IntroConfig())
	require.NoError(t, err)

	target := func(f int) timeline.Vec3 {
		if f < 30 {
			return timeline.V3(0, -4.1, 1.3)
		}
		return timeline.V3(2, -4.1, 1.3)
	}

	forward := make([]Shot, 90)
	for f := range forward {
		forward[f] = rig.ShotAt(f, target)
	}
	for f := 89; f >= 0; f-- {
		assert.Equal(t, forward[f], rig.ShotAt(f, target), "frame %d", f)
	}

	// Smoothed camera lags the jump at frame 30 and converges afterwards.
	assert.Less(t, forward[30].Position.X, 2.0)
	assert.Greater(t, forward[89].Position.X, forward[31].Position.X)
}

func TestRig_FixedWithHeightCurve(t *testing.T) {
	rig, err := NewRig(LowConfig())
	require.NoError(t, err)

	tests := []struct {
		frame int
		wantY float64
	}{
		{0, 0.1},
		{150, 0.15},
		{300, 0.2},
		{600, 0.2},
		{-30, 0.09},
	}
	for _, tc := range tests {
		shot := rig.ShotAt(tc.frame, nil)
		assert.InDelta(t, tc.wantY, shot.Position.Y, 1e-12, "frame %d", tc.frame)
		assert.Equal(t, 4.5, shot.Position.Z)
		require.NotNil(t, shot.Rotation)
		assert.Equal(t, -0.25, shot.Rotation.X)
		assert.Nil(t, shot.LookAt)
	}
}

func TestRig_FixedIgnoresTarget(t *testing.T) {
	rig, err := NewRig(StageConfig())
	require.NoError(t, err)

	shot := rig.ShotAt(10, still(timeline.V3(9, 9, 9)))
	assert.Equal(t, timeline.V3(0, 1.5, 5), shot.Position)
	require.NotNil(t, shot.LookAt)
	assert.Equal(t, timeline.V3(0, 1, 0), *shot.LookAt)
}

func TestConfig_Validate(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		if problems := cfg.Validate(); len(problems) > 0 {
			t.Errorf("preset %s invalid: %v", name, problems)
		}
	}

	bad := DefaultConfig()
	bad.Mode = "orbit"
	bad.Smoothing = 2
	bad.FOV = 0
	bad.Height = &timeline.CurveSpec{Frames: []float64{0}, Values: []float64{1}}
	assert.Len(t, bad.Validate(), 4)

	_, err := NewRig(bad)
	if !errors.Is(err, timeline.ErrInvalidConfig) {
		t.Errorf("NewRig error = %v, want ErrInvalidConfig", err)
	}

	assert.Nil(t, GetPreset("dolly"))
}

func TestConfig_Apply(t *testing.T) {
	base := DefaultConfig()
	base.Target = "autonate"

	cfg, err := base.Apply(map[string]interface{}{"preset": "intro", "smoothing": 0.2})
	require.NoError(t, err)
	assert.Equal(t, "autonate", cfg.Target, "preset keeps the target")
	assert.Equal(t, timeline.V3(0, 2, 4), cfg.Offset)
	assert.Equal(t, 0.2, cfg.Smoothing)

	cfg, err = base.Apply(map[string]interface{}{
		"mode":    "fixed",
		"look_at": []interface{}{0.0, 1.0, 0.0},
		"fov":     35,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeFixed, cfg.Mode)
	assert.Equal(t, timeline.V3(0, 1, 0), *cfg.LookAt)
	assert.Equal(t, 35.0, cfg.FOV)

	_, err = base.Apply(map[string]interface{}{"preset": "dolly"})
	assert.Error(t, err)
	_, err = base.Apply(map[string]interface{}{"zoom": 2})
	assert.Error(t, err)
	_, err = base.Apply(map[string]interface{}{"smoothing": 3.0})
	assert.Error(t, err)
	assert.Equal(t, 0.1, base.Smoothing, "receiver unchanged")
}
