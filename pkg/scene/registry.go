package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ChangeFunc is called after a scene is added, replaced or removed.
type ChangeFunc func(id string, removed bool)

// Registry manages the set of loaded scenes.
type Registry struct {
	mu       sync.RWMutex
	scenes   map[string]*Scene
	opts     []Option
	logger   *slog.Logger
	callback ChangeFunc
}

// NewRegistry creates an empty registry. opts are passed to every Build.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		scenes: make(map[string]*Scene),
		opts:   opts,
		logger: logger.With("component", "scenes"),
	}
}

// LoadBuiltIn loads all embedded scenes into the registry.
func (r *Registry) LoadBuiltIn() error {
	names, err := ListEmbedded()
	if err != nil {
		return err
	}

	for _, name := range names {
		s, err := LoadEmbedded(name, r.opts...)
		if err != nil {
			return fmt.Errorf("failed to load scene %q: %w", name, err)
		}
		r.Register(s)
	}
	return nil
}

// LoadDir loads scene files from a directory. Scenes that build are
// registered even when others fail; failures are returned joined.
func (r *Registry) LoadDir(dir string) error {
	scenes, err := LoadDir(dir, r.opts...)
	for _, s := range scenes {
		r.Register(s)
	}
	return err
}

// Register adds or replaces a scene.
func (r *Registry) Register(s *Scene) {
	r.mu.Lock()
	r.scenes[s.ID()] = s
	cb := r.callback
	r.mu.Unlock()

	r.logger.Debug("scene registered", "id", s.ID(), "source", s.Source(), "frames", s.DurationFrames())
	if cb != nil {
		cb(s.ID(), false)
	}
}

// Unregister removes a scene.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.scenes[id]
	delete(r.scenes, id)
	cb := r.callback
	r.mu.Unlock()

	if ok && cb != nil {
		cb(id, true)
	}
}

// Get retrieves a scene by ID.
func (r *Registry) Get(id string) (*Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// List returns every registered scene's summary, sorted by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.scenes))
	for _, s := range r.scenes {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered scenes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenes)
}

// SetCallback sets the function notified of scene changes.
func (r *Registry) SetCallback(cb ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callback = cb
}

// Reload rebuilds the scene stored in filename. If the file is gone, scenes
// loaded from it are removed. A file that fails to build leaves the previous
// version in place.
func (r *Registry) Reload(filename string) error {
	filename = filepath.Clean(filename)

	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		for _, id := range r.fromSource(filename) {
			r.Unregister(id)
			r.logger.Info("scene removed", "id", id, "source", filename)
		}
		return nil
	}

	s, err := LoadFile(filename, r.opts...)
	if err != nil {
		r.logger.Warn("scene reload failed", "source", filename, "error", err)
		return err
	}

	// A renamed ID leaves the old entry behind otherwise.
	for _, id := range r.fromSource(filename) {
		if id != s.ID() {
			r.Unregister(id)
		}
	}
	r.Register(s)
	r.logger.Info("scene reloaded", "id", s.ID(), "source", filename)
	return nil
}

func (r *Registry) fromSource(filename string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, s := range r.scenes {
		if filepath.Clean(s.Source()) == filename {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
