package script

import (
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

const (
	// WordsPerMinute is the assumed speaking rate for duration estimates.
	WordsPerMinute = 150

	// DefaultPauseAfter is used when a line sets no pause after it.
	DefaultPauseAfter = 0.5

	// DefaultStartFrame leaves one second of silence at 30fps.
	DefaultStartFrame = 30
)

// Cue is the timing of one line, ready to drop into a scene's dialogue list.
type Cue struct {
	CharacterID    string `yaml:"character" json:"character"`
	Audio          string `yaml:"audio" json:"audio"`
	StartFrame     int    `yaml:"start_frame" json:"start_frame"`
	DurationFrames int    `yaml:"duration_frames" json:"duration_frames"`
	Subtitle       string `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
}

// Window returns the cue's activity window.
func (c Cue) Window() timeline.ActivityWindow {
	return timeline.ActivityWindow{StartFrame: c.StartFrame, DurationFrames: c.DurationFrames}
}

// AudioPath returns the conventional voiceover path for line index i (0-based).
func AudioPath(i int) string {
	return fmt.Sprintf("audio/voiceovers/line-%d.mp3", i+1)
}

// Words counts whitespace-separated words. Empty text counts as one word so
// every line gets some screen time.
func Words(text string) int {
	n := len(strings.Fields(text))
	if n == 0 {
		return 1
	}
	return n
}

// EstimateFrames approximates how many frames it takes to speak text.
func EstimateFrames(text string, fps int) (int, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("%w: fps must be positive, got %d", timeline.ErrDegenerate, fps)
	}
	seconds := float64(Words(text)) / WordsPerMinute * 60
	return int(math.Ceil(seconds * float64(fps))), nil
}

// Timing lays the script's lines out back to back from startFrame using
// estimated durations. Pauses accumulate in fractional frames; each cue
// starts at the floor of the running position.
func Timing(s *Script, fps, startFrame int) ([]Cue, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps must be positive, got %d", timeline.ErrDegenerate, fps)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cues := make([]Cue, 0, len(s.Lines))
	current := float64(startFrame)
	for i, line := range s.Lines {
		current += line.PauseBefore * float64(fps)

		duration, err := EstimateFrames(line.Text, fps)
		if err != nil {
			return nil, err
		}

		cues = append(cues, Cue{
			CharacterID:    line.CharacterID,
			Audio:          AudioPath(i),
			StartFrame:     int(math.Floor(current)),
			DurationFrames: duration,
			Subtitle:       line.Text,
		})

		current += float64(duration)
		pauseAfter := line.PauseAfter
		if pauseAfter == 0 {
			pauseAfter = DefaultPauseAfter
		}
		current += pauseAfter * float64(fps)
	}
	return cues, nil
}
