package scene

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-autonate/pkg/camera"
	"github.com/teslashibe/go-autonate/pkg/clip"
	"github.com/teslashibe/go-autonate/pkg/path"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Spec is the YAML description of a scene. It is plain data; Build turns it
// into an immutable Scene.
type Spec struct {
	ID             string          `yaml:"id" json:"id"`
	Title          string          `yaml:"title" json:"title"`
	FPS            int             `yaml:"fps" json:"fps"`
	DurationFrames int             `yaml:"duration_frames" json:"duration_frames"`
	Width          int             `yaml:"width" json:"width"`
	Height         int             `yaml:"height" json:"height"`
	Background     string          `yaml:"background,omitempty" json:"background,omitempty"`
	Characters     []CharacterSpec `yaml:"characters" json:"characters"`
	Dialogue       []DialogueSpec  `yaml:"dialogue,omitempty" json:"dialogue,omitempty"`
	Subtitles      []SubtitleSpec  `yaml:"subtitles,omitempty" json:"subtitles,omitempty"`
	Titles         []TitleSpec     `yaml:"titles,omitempty" json:"titles,omitempty"`
	Camera         *CameraSpec     `yaml:"camera,omitempty" json:"camera,omitempty"`
}

// CharacterSpec describes one character. Clip and window maps are keyed by
// state name.
type CharacterSpec struct {
	Name     string                               `yaml:"name" json:"name"`
	Model    string                               `yaml:"model,omitempty" json:"model,omitempty"`
	Position timeline.Vec3                        `yaml:"position" json:"position"`
	Rotation timeline.Vec3                        `yaml:"rotation" json:"rotation"`
	Scale    float64                              `yaml:"scale,omitempty" json:"scale,omitempty"`
	BaseY    *float64                             `yaml:"base_y,omitempty" json:"base_y,omitempty"`
	Path     []path.Waypoint                      `yaml:"path,omitempty" json:"path,omitempty"`
	Clips    map[string]clip.Clip                 `yaml:"clips" json:"clips"`
	Windows  map[string][]timeline.ActivityWindow `yaml:"windows,omitempty" json:"windows,omitempty"`
}

// DialogueSpec is one voiced line. Its length comes from DurationFrames,
// DurationSeconds, the audio file or the subtitle text, in that order.
type DialogueSpec struct {
	Character       string  `yaml:"character" json:"character"`
	Audio           string  `yaml:"audio,omitempty" json:"audio,omitempty"`
	StartFrame      int     `yaml:"start_frame" json:"start_frame"`
	DurationFrames  int     `yaml:"duration_frames,omitempty" json:"duration_frames,omitempty"`
	DurationSeconds float64 `yaml:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`
	State           string  `yaml:"state,omitempty" json:"state,omitempty"`
	Subtitle        string  `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
}

// SubtitleSpec shows Text on frames [StartFrame, EndFrame).
type SubtitleSpec struct {
	Text       string `yaml:"text" json:"text"`
	StartFrame int    `yaml:"start_frame" json:"start_frame"`
	EndFrame   int    `yaml:"end_frame" json:"end_frame"`
}

// TitleSpec is a title card. Opacity keyframes are relative to StartFrame.
type TitleSpec struct {
	Text           string              `yaml:"text" json:"text"`
	StartFrame     int                 `yaml:"start_frame" json:"start_frame"`
	DurationFrames int                 `yaml:"duration_frames" json:"duration_frames"`
	Opacity        *timeline.CurveSpec `yaml:"opacity,omitempty" json:"opacity,omitempty"`
}

// CameraSpec is a camera config optionally layered over a named preset.
type CameraSpec struct {
	Preset        string `yaml:"preset,omitempty" json:"preset,omitempty"`
	camera.Config `yaml:",inline"`
}

// UnmarshalYAML starts from the preset (or the default config) and applies
// the fields present in the node on top.
func (c *CameraSpec) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := camera.DefaultConfig()
	if head.Preset != "" {
		p := camera.GetPreset(head.Preset)
		if p == nil {
			return fmt.Errorf("line %d: unknown camera preset %q", node.Line, head.Preset)
		}
		cfg = *p
	}
	if err := node.Decode(&cfg); err != nil {
		return err
	}

	c.Preset = head.Preset
	c.Config = cfg
	return nil
}

// Parse decodes a YAML scene description. Unknown fields are rejected so
// typos surface instead of silently falling back to defaults.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("scene: unmarshal: %w", err)
	}
	return &spec, nil
}

// ParseFile reads and decodes a scene description file.
func ParseFile(filename string) (*Spec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", filename, err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return spec, nil
}

// LoadFile reads, decodes and builds a scene file.
func LoadFile(filename string, opts ...Option) (*Scene, error) {
	spec, err := ParseFile(filename)
	if err != nil {
		return nil, err
	}
	s, err := spec.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	s.source = filename
	return s, nil
}
