package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/teslashibe/go-autonate/pkg/camera"
	"github.com/teslashibe/go-autonate/pkg/character"
	"github.com/teslashibe/go-autonate/pkg/clip"
	"github.com/teslashibe/go-autonate/pkg/path"
	"github.com/teslashibe/go-autonate/pkg/script"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Defaults applied when a scene leaves them unset.
const (
	DefaultFPS    = 30
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// DurationSource measures an audio reference. voiceover.Prober implements it.
type DurationSource interface {
	Duration(audio string) (time.Duration, error)
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	durations DurationSource
}

// WithDurationSource lets dialogue lines without an explicit length take it
// from their audio file.
func WithDurationSource(ds DurationSource) Option {
	return func(o *buildOptions) {
		o.durations = ds
	}
}

// Build validates the description and returns an immutable Scene. Every
// lookup that needs I/O (audio durations) happens here, so Frame never
// blocks.
func (s *Spec) Build(opts ...Option) (*Scene, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	if s.ID == "" {
		return nil, invalid("id", errors.New("required"))
	}
	fps := s.FPS
	if fps == 0 {
		fps = DefaultFPS
	}
	if fps < 0 {
		return nil, invalid("fps", fmt.Errorf("%w: %d", timeline.ErrInvalidConfig, fps))
	}
	if s.DurationFrames < 0 {
		return nil, invalid("duration_frames", fmt.Errorf("%w: %d", timeline.ErrInvalidConfig, s.DurationFrames))
	}
	if len(s.Characters) == 0 {
		return nil, invalid("characters", errors.New("at least one character required"))
	}

	sc := &Scene{
		id:     s.ID,
		title:  s.Title,
		fps:    fps,
		width:  orDefault(s.Width, DefaultWidth),
		height: orDefault(s.Height, DefaultHeight),
		bg:     s.Background,
		byName: make(map[string]int, len(s.Characters)),
	}
	end := 0

	windows := make([]map[character.State][]timeline.ActivityWindow, len(s.Characters))
	for i, cs := range s.Characters {
		if cs.Name == "" {
			return nil, invalid(fmt.Sprintf("characters[%d].name", i), errors.New("required"))
		}
		if _, dup := sc.byName[cs.Name]; dup {
			return nil, invalid(fmt.Sprintf("characters[%d].name", i), fmt.Errorf("duplicate character %q", cs.Name))
		}
		sc.byName[cs.Name] = i

		ws, err := parseWindows(cs.Windows)
		if err != nil {
			return nil, invalid(fmt.Sprintf("characters[%d].windows", i), err)
		}
		windows[i] = ws
		for _, list := range ws {
			for _, w := range list {
				end = max(end, w.End())
			}
		}
	}

	for i, d := range s.Dialogue {
		field := fmt.Sprintf("dialogue[%d]", i)
		idx, ok := sc.byName[d.Character]
		if !ok {
			return nil, invalid(field+".character", fmt.Errorf("unknown character %q", d.Character))
		}
		state := character.Talking
		if d.State != "" {
			st, err := character.ParseState(d.State)
			if err != nil {
				return nil, invalid(field+".state", err)
			}
			state = st
		}

		frames, err := dialogueFrames(d, fps, o.durations)
		if err != nil {
			return nil, invalid(field, err)
		}
		w, err := timeline.NewActivityWindow(d.StartFrame, frames)
		if err != nil {
			return nil, invalid(field, err)
		}

		windows[idx][state] = append(windows[idx][state], w)
		sc.dialogue = append(sc.dialogue, cue{
			character: d.Character,
			audio:     d.Audio,
			window:    w,
		})
		if d.Subtitle != "" {
			sc.subtitles = append(sc.subtitles, subtitle{text: d.Subtitle, window: w})
		}
		end = max(end, w.End())
	}

	for i, sub := range s.Subtitles {
		if sub.EndFrame < sub.StartFrame || sub.StartFrame < 0 {
			return nil, invalid(fmt.Sprintf("subtitles[%d]", i), fmt.Errorf("%w: frames [%d, %d)", timeline.ErrInvalidConfig, sub.StartFrame, sub.EndFrame))
		}
		w := timeline.ActivityWindow{StartFrame: sub.StartFrame, DurationFrames: sub.EndFrame - sub.StartFrame}
		sc.subtitles = append(sc.subtitles, subtitle{text: sub.Text, window: w})
		end = max(end, w.End())
	}

	for i, t := range s.Titles {
		field := fmt.Sprintf("titles[%d]", i)
		w, err := timeline.NewActivityWindow(t.StartFrame, t.DurationFrames)
		if err != nil {
			return nil, invalid(field, err)
		}
		card := titleCard{text: t.Text, window: w}
		if t.Opacity != nil {
			c, err := t.Opacity.Curve()
			if err != nil {
				return nil, invalid(field+".opacity", err)
			}
			card.opacity = c
		}
		sc.titles = append(sc.titles, card)
		end = max(end, w.End())
	}

	for i, cs := range s.Characters {
		field := fmt.Sprintf("characters[%d]", i)
		c, err := buildCharacter(cs, windows[i])
		if err != nil {
			return nil, invalid(field, err)
		}
		sc.characters = append(sc.characters, c)
		if p := c.Path(); p != nil {
			end = max(end, p.LastFrame()+1)
		}
	}

	sc.frames = s.DurationFrames
	if sc.frames == 0 {
		// One second of tail after the last scripted event.
		sc.frames = end + fps
	}

	cam := camera.DefaultConfig()
	if s.Camera != nil {
		cam = s.Camera.Config
	}
	if err := sc.setCamera(cam); err != nil {
		return nil, invalid("camera", err)
	}

	sc.spec = *s
	return sc, nil
}

func buildCharacter(cs CharacterSpec, windows map[character.State][]timeline.ActivityWindow) (*character.Character, error) {
	clips := make(map[character.State]clip.Clip, len(cs.Clips))
	for name, c := range cs.Clips {
		st, err := character.ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("clips: %w", err)
		}
		if c.Speed == 0 && c.Profile == nil {
			c.Speed = 1
		}
		if c.Name == "" {
			c.Name = cs.Name + "-" + st.String()
		}
		clips[st] = c
	}

	cfg := character.Config{
		Name:     cs.Name,
		Clips:    clips,
		Windows:  windows,
		Position: cs.Position,
		Rotation: cs.Rotation,
		Scale:    cs.Scale,
	}
	if len(cs.Path) > 0 {
		p, err := path.New(cs.Path...)
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		cfg.Path = p
		cfg.BaseY = cs.Position.Y
		if cs.BaseY != nil {
			cfg.BaseY = *cs.BaseY
		}
	}
	return character.New(cfg)
}

func parseWindows(in map[string][]timeline.ActivityWindow) (map[character.State][]timeline.ActivityWindow, error) {
	out := make(map[character.State][]timeline.ActivityWindow, len(in))
	for name, ws := range in {
		st, err := character.ParseState(name)
		if err != nil {
			return nil, err
		}
		for _, w := range ws {
			if err := w.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		out[st] = append([]timeline.ActivityWindow(nil), ws...)
	}
	return out, nil
}

func dialogueFrames(d DialogueSpec, fps int, ds DurationSource) (int, error) {
	switch {
	case d.DurationFrames > 0:
		return d.DurationFrames, nil
	case d.DurationSeconds > 0:
		return timeline.FramesForSeconds(d.DurationSeconds, fps)
	case d.Audio != "" && ds != nil:
		dur, err := ds.Duration(d.Audio)
		if err == nil {
			return timeline.FramesForSeconds(dur.Seconds(), fps)
		}
		// Missing audio falls back to the subtitle estimate.
		if !errors.Is(err, fs.ErrNotExist) || d.Subtitle == "" {
			return 0, fmt.Errorf("audio %s: %w", d.Audio, err)
		}
	}
	if d.Subtitle != "" {
		return script.EstimateFrames(d.Subtitle, fps)
	}
	return 0, fmt.Errorf("%w: no duration, audio source or subtitle to size the line", timeline.ErrInvalidConfig)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
