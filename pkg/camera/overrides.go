package camera

import (
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Apply returns a copy of c with the given fields overridden. A "preset" key
// replaces the whole config first; the remaining keys are applied on top.
// Vector fields accept a three-element array.
func (c Config) Apply(params map[string]interface{}) (Config, error) {
	cfg := c

	if raw, ok := params["preset"]; ok {
		name, _ := raw.(string)
		preset := GetPreset(name)
		if preset == nil {
			return c, fmt.Errorf("unknown preset: %v", raw)
		}
		target := cfg.Target
		cfg = *preset
		cfg.Target = target
	}

	for key, value := range params {
		switch key {
		case "preset":
		case "mode":
			if v, ok := value.(string); ok {
				cfg.Mode = Mode(v)
			}
		case "target":
			if v, ok := value.(string); ok {
				cfg.Target = v
			}
		case "smoothing":
			if v, ok := toFloat(value); ok {
				cfg.Smoothing = v
			}
		case "fov":
			if v, ok := toFloat(value); ok {
				cfg.FOV = v
			}
		case "offset":
			if v, ok := toVec(value); ok {
				cfg.Offset = v
			}
		case "look_at_offset":
			if v, ok := toVec(value); ok {
				cfg.LookAtOffset = v
			}
		case "position":
			if v, ok := toVec(value); ok {
				cfg.Position = v
			}
		case "look_at":
			if v, ok := toVec(value); ok {
				cfg.LookAt = &v
				cfg.Rotation = nil
			}
		default:
			return c, fmt.Errorf("unknown camera field: %s", key)
		}
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		return c, fmt.Errorf("validation failed: %v", errors)
	}
	return cfg, nil
}

// Helper functions for type conversion

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func toVec(v interface{}) (timeline.Vec3, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return timeline.Vec3{}, false
	}
	var out [3]float64
	for i, e := range arr {
		f, ok := toFloat(e)
		if !ok {
			return timeline.Vec3{}, false
		}
		out[i] = f
	}
	return timeline.V3(out[0], out[1], out[2]), true
}
