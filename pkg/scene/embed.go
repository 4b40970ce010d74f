package scene

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed data/*.yaml
var embeddedScenes embed.FS

// EmbeddedPrefix marks the Source of scenes built from the embedded data.
const EmbeddedPrefix = "embedded:"

// LoadEmbedded builds an embedded scene by name.
func LoadEmbedded(name string, opts ...Option) (*Scene, error) {
	filename := fmt.Sprintf("data/%s.yaml", name)
	data, err := embeddedScenes.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: embedded %q", ErrNotFound, name)
	}

	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("embedded %q: %w", name, err)
	}
	s, err := spec.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("embedded %q: %w", name, err)
	}
	s.source = EmbeddedPrefix + name
	return s, nil
}

// ListEmbedded returns the names of all embedded scenes.
func ListEmbedded() ([]string, error) {
	entries, err := embeddedScenes.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded scenes: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsSceneFile reports whether path has a scene file extension.
func IsSceneFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadDir builds every scene file in dir. Files that fail are reported in the
// joined error; the scenes that did build are still returned.
func LoadDir(dir string, opts ...Option) ([]*Scene, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list scene files: %w", err)
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	var (
		scenes []*Scene
		errs   []error
	)
	for _, file := range files {
		s, err := LoadFile(file, opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenes = append(scenes, s)
	}
	return scenes, errors.Join(errs...)
}
