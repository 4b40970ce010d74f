// Package script models a dialogue script and derives frame timing for each
// line before any voiceover audio exists.
package script

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCharacter is returned when a line names a character the script
// does not declare.
var ErrUnknownCharacter = errors.New("unknown character")

// Provider names a text-to-speech service.
type Provider string

// Supported providers.
const (
	ProviderElevenLabs Provider = "elevenlabs"
	ProviderOpenAI     Provider = "openai"
	ProviderGoogle     Provider = "google"
	ProviderEdge       Provider = "edge"
)

// Voice configures how a character's lines are synthesized.
type Voice struct {
	Provider Provider `yaml:"provider" json:"provider"`
	VoiceID  string   `yaml:"voice_id" json:"voice_id"`
	Speed    float64  `yaml:"speed,omitempty" json:"speed,omitempty"`
	Pitch    float64  `yaml:"pitch,omitempty" json:"pitch,omitempty"`
}

// Character is a speaking role.
type Character struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Voice Voice  `yaml:"voice" json:"voice"`
}

// Line is one spoken line. Pauses are in seconds.
type Line struct {
	CharacterID string  `yaml:"character" json:"character"`
	Text        string  `yaml:"text" json:"text"`
	PauseBefore float64 `yaml:"pause_before,omitempty" json:"pause_before,omitempty"`
	PauseAfter  float64 `yaml:"pause_after,omitempty" json:"pause_after,omitempty"`
}

// Script is a titled list of lines spoken by declared characters.
type Script struct {
	Title      string      `yaml:"title" json:"title"`
	Characters []Character `yaml:"characters" json:"characters"`
	Lines      []Line      `yaml:"lines" json:"lines"`
}

// Parse decodes a YAML script and validates it.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a YAML script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Validate checks that every line names a declared character and that pauses
// are not negative.
func (s *Script) Validate() error {
	for i, line := range s.Lines {
		if _, ok := s.Character(line.CharacterID); !ok {
			return fmt.Errorf("line %d: %w %q", i+1, ErrUnknownCharacter, line.CharacterID)
		}
		if line.PauseBefore < 0 || line.PauseAfter < 0 {
			return fmt.Errorf("line %d: negative pause", i+1)
		}
	}
	return nil
}

// Character looks up a character by ID.
func (s *Script) Character(id string) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}
