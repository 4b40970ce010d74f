package script

import (
	"fmt"
	"strings"
)

// Manifest renders the text handed to whoever generates the voiceovers: one
// section per line with speaker, voice, text and output file.
func Manifest(s *Script) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# TTS Generation Script\n")
	fmt.Fprintf(&b, "# Title: %s\n\n", s.Title)

	for i, line := range s.Lines {
		c, _ := s.Character(line.CharacterID)
		fmt.Fprintf(&b, "## Line %d\n", i+1)
		fmt.Fprintf(&b, "Character: %s\n", c.Name)
		fmt.Fprintf(&b, "Voice: %s\n", c.Voice.VoiceID)
		fmt.Fprintf(&b, "Text: %q\n", line.Text)
		fmt.Fprintf(&b, "Output: public/%s\n\n", AudioPath(i))
	}
	return b.String(), nil
}
