// Package scene turns a YAML scene description into an immutable Scene that
// answers "what does frame N look like" for every character, the camera and
// the text overlays.
//
// Frame is a pure function of the frame number and the built scene, so any
// number of goroutines can query any frames in any order.
package scene

import (
	"fmt"

	"github.com/teslashibe/go-autonate/pkg/camera"
	"github.com/teslashibe/go-autonate/pkg/character"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Scene is a built scene. It is never modified after Build.
type Scene struct {
	id     string
	title  string
	fps    int
	frames int
	width  int
	height int
	bg     string
	source string

	characters []*character.Character
	byName     map[string]int
	dialogue   []cue
	subtitles  []subtitle
	titles     []titleCard

	cam    camera.Config
	rig    *camera.Rig
	target *character.Character

	spec Spec
}

type cue struct {
	character string
	audio     string
	window    timeline.ActivityWindow
}

type subtitle struct {
	text   string
	window timeline.ActivityWindow
}

type titleCard struct {
	text    string
	window  timeline.ActivityWindow
	opacity *timeline.Curve
}

// FrameState is everything a renderer needs for one frame.
type FrameState struct {
	Frame      int              `json:"frame"`
	Seconds    float64          `json:"seconds"`
	Characters []CharacterFrame `json:"characters"`
	Camera     camera.Shot      `json:"camera"`
	Subtitle   string           `json:"subtitle,omitempty"`
	Titles     []TitleFrame     `json:"titles,omitempty"`
	Audio      []AudioFrame     `json:"audio,omitempty"`
}

// CharacterFrame is a character's pose, or the error that prevented
// computing it. One failing character never hides the others.
type CharacterFrame struct {
	character.Pose
	Err string `json:"error,omitempty"`
}

// TitleFrame is a visible title card.
type TitleFrame struct {
	Text    string  `json:"text"`
	Opacity float64 `json:"opacity"`
}

// AudioFrame is a dialogue track playing on this frame and how far into it.
type AudioFrame struct {
	Character string  `json:"character"`
	Audio     string  `json:"audio"`
	Offset    float64 `json:"offset"`
}

// Info summarises a scene for listings.
type Info struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	FPS            int      `json:"fps"`
	DurationFrames int      `json:"duration_frames"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	Characters     []string `json:"characters"`
	Source         string   `json:"source,omitempty"`
}

// ID returns the scene identifier.
func (s *Scene) ID() string { return s.id }

// Title returns the human-readable title.
func (s *Scene) Title() string { return s.title }

// FPS returns the frame rate.
func (s *Scene) FPS() int { return s.fps }

// DurationFrames returns the number of frames in the scene.
func (s *Scene) DurationFrames() int { return s.frames }

// Source returns where the scene was loaded from.
func (s *Scene) Source() string { return s.source }

// Spec returns the description the scene was built from.
func (s *Scene) Spec() Spec { return s.spec }

// Camera returns the active camera configuration.
func (s *Scene) Camera() camera.Config { return s.cam }

// Character returns a character by name.
func (s *Scene) Character(name string) (*character.Character, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.characters[i], true
}

// Info summarises the scene.
func (s *Scene) Info() Info {
	names := make([]string, len(s.characters))
	for i, c := range s.characters {
		names[i] = c.Name()
	}
	return Info{
		ID:             s.id,
		Title:          s.title,
		FPS:            s.fps,
		DurationFrames: s.frames,
		Width:          s.width,
		Height:         s.height,
		Characters:     names,
		Source:         s.source,
	}
}

// WithCamera returns a copy of the scene using cfg for the camera.
func (s *Scene) WithCamera(cfg camera.Config) (*Scene, error) {
	cp := *s
	if err := cp.setCamera(cfg); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Scene) setCamera(cfg camera.Config) error {
	rig, err := camera.NewRig(cfg)
	if err != nil {
		return err
	}

	var target *character.Character
	if cfg.Mode == camera.ModeFollow {
		if cfg.Target == "" {
			target = s.characters[0]
			cfg.Target = target.Name()
		} else {
			c, ok := s.Character(cfg.Target)
			if !ok {
				return fmt.Errorf("unknown camera target %q", cfg.Target)
			}
			target = c
		}
	}

	s.cam = cfg
	s.rig = rig
	s.target = target
	return nil
}

// Frame evaluates the scene at frame f.
func (s *Scene) Frame(f int) (FrameState, error) {
	if f < 0 || f >= s.frames {
		return FrameState{}, fmt.Errorf("%w: %d not in [0, %d)", ErrFrameOutOfRange, f, s.frames)
	}

	secs, err := timeline.Seconds(f, s.fps)
	if err != nil {
		return FrameState{}, err
	}

	fs := FrameState{
		Frame:      f,
		Seconds:    secs,
		Characters: make([]CharacterFrame, len(s.characters)),
	}

	for i, c := range s.characters {
		pose, err := c.Evaluate(f, s.fps)
		if err != nil {
			fs.Characters[i] = CharacterFrame{
				Pose: character.Pose{Name: c.Name()},
				Err:  err.Error(),
			}
			continue
		}
		fs.Characters[i] = CharacterFrame{Pose: pose}
	}

	var target camera.TargetFunc
	if s.target != nil {
		t := s.target
		target = func(frame int) timeline.Vec3 {
			return t.Placement(frame).Position
		}
	}
	fs.Camera = s.rig.ShotAt(f, target)

	for _, sub := range s.subtitles {
		if sub.window.Contains(f) {
			fs.Subtitle = sub.text
			break
		}
	}

	for _, t := range s.titles {
		if !t.window.Contains(f) {
			continue
		}
		opacity := 1.0
		if t.opacity != nil {
			opacity = timeline.Clamp(t.opacity.At(float64(t.window.Elapsed(f))), 0, 1)
		}
		fs.Titles = append(fs.Titles, TitleFrame{Text: t.text, Opacity: opacity})
	}

	for _, d := range s.dialogue {
		if d.audio == "" || !d.window.Contains(f) {
			continue
		}
		fs.Audio = append(fs.Audio, AudioFrame{
			Character: d.character,
			Audio:     d.audio,
			Offset:    float64(d.window.Elapsed(f)) / float64(s.fps),
		})
	}

	return fs, nil
}
