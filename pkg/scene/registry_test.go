package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneYAML(id string, frames int) string {
	return fmt.Sprintf(`id: %s
fps: 30
duration_frames: %d
characters:
  - name: bob
    clips:
      idle: {duration: 2}
`, id, frames)
}

func writeScene(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRegistry_LoadBuiltIn(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.LoadBuiltIn())
	assert.Equal(t, 4, r.Count())

	s, err := r.Get("comedy-skit")
	require.NoError(t, err)
	assert.Equal(t, "Comedy Skit", s.Title())

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list := r.List()
	require.Len(t, list, 4)
	assert.Equal(t, "autonate-intro", list[0].ID)
	assert.Equal(t, []string{"character-1", "character-2"}, list[3].Characters)
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "a.yaml", sceneYAML("alpha", 60))
	writeScene(t, dir, "b.yml", sceneYAML("beta", 90))
	writeScene(t, dir, "broken.yaml", "id: broken\n")
	writeScene(t, dir, "notes.txt", "not a scene")

	r := NewRegistry(nil)
	err := r.LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	assert.Equal(t, 2, r.Count())
	s, err := r.Get("beta")
	require.NoError(t, err)
	assert.Equal(t, 90, s.DurationFrames())
	assert.Equal(t, filepath.Join(dir, "b.yml"), s.Source())
}

func TestRegistry_Reload(t *testing.T) {
	dir := t.TempDir()
	p := writeScene(t, dir, "a.yaml", sceneYAML("alpha", 60))

	r := NewRegistry(nil)
	require.NoError(t, r.LoadDir(dir))

	var (
		mu      sync.Mutex
		changes []string
	)
	r.SetCallback(func(id string, removed bool) {
		mu.Lock()
		defer mu.Unlock()
		if removed {
			id = "-" + id
		}
		changes = append(changes, id)
	})

	writeScene(t, dir, "a.yaml", sceneYAML("alpha", 120))
	require.NoError(t, r.Reload(p))
	s, _ := r.Get("alpha")
	assert.Equal(t, 120, s.DurationFrames())

	// A broken edit keeps the last good version.
	writeScene(t, dir, "a.yaml", "id: alpha\nfps: -1\n")
	assert.Error(t, r.Reload(p))
	s, _ = r.Get("alpha")
	assert.Equal(t, 120, s.DurationFrames())

	// Renaming the ID inside the file replaces the old entry.
	writeScene(t, dir, "a.yaml", sceneYAML("gamma", 30))
	require.NoError(t, r.Reload(p))
	_, err := r.Get("alpha")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.Remove(p))
	require.NoError(t, r.Reload(p))
	assert.Equal(t, 0, r.Count())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alpha", "-alpha", "gamma", "-gamma"}, changes)
}

func TestWatcher_ReportsSceneFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	writeScene(t, dir, "ignored.txt", "x")
	p := writeScene(t, dir, "live.yaml", sceneYAML("live", 30))

	select {
	case name := <-w.Events:
		assert.Equal(t, p, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}
}

func TestRegistry_Watch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	r := NewRegistry(nil)
	reloaded := make(chan string, 4)
	r.SetCallback(func(id string, removed bool) {
		if !removed {
			reloaded <- id
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		r.Watch(ctx, w)
		close(done)
	}()

	writeScene(t, dir, "live.yaml", sceneYAML("live", 45))

	select {
	case id := <-reloaded:
		assert.Equal(t, "live", id)
	case <-time.After(5 * time.Second):
		t.Fatal("scene was not reloaded")
	}

	require.NoError(t, w.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after Close")
	}
}
