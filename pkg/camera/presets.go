package camera

import "github.com/teslashibe/go-autonate/pkg/timeline"

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetIntro   = "intro"
	PresetWide    = "wide"
	PresetStage   = "stage"
	PresetLow     = "low"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetIntro:   IntroConfig(),
		PresetWide:    WideConfig(),
		PresetStage:   StageConfig(),
		PresetLow:     LowConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetIntro,
		PresetWide,
		PresetStage,
		PresetLow,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// IntroConfig returns a close follow camera aimed at the upper body.
func IntroConfig() Config {
	cfg := DefaultConfig()
	cfg.Offset = timeline.V3(0, 2, 4)
	cfg.LookAtOffset = timeline.V3(0, 1, 0)
	cfg.Smoothing = 0.05
	return cfg
}

// WideConfig returns a rigid follow camera framing the whole body.
func WideConfig() Config {
	cfg := DefaultConfig()
	cfg.Smoothing = 0
	return cfg
}

// StageConfig returns a fixed camera for multi-character scenes.
func StageConfig() Config {
	look := timeline.V3(0, 1, 0)
	cfg := DefaultConfig()
	cfg.Mode = ModeFixed
	cfg.Position = timeline.V3(0, 1.5, 5)
	cfg.LookAt = &look
	return cfg
}

// LowConfig returns a fixed camera near the floor, tilted down, that rises
// slightly over the first ten seconds at 30fps.
func LowConfig() Config {
	rot := timeline.V3(-0.25, 0, 0)
	cfg := DefaultConfig()
	cfg.Mode = ModeFixed
	cfg.Position = timeline.V3(0, 0, 4.5)
	cfg.Rotation = &rot
	cfg.Height = &timeline.CurveSpec{
		Frames: []float64{0, 300},
		Values: []float64{0.1, 0.2},
		Left:   timeline.ExtrapolateExtend,
		Right:  timeline.ExtrapolateClamp,
	}
	return cfg
}
