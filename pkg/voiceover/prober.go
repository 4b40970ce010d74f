package voiceover

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Prober resolves audio references relative to Root and caches the results
// by path and modification time.
type Prober struct {
	Root string

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	mod  time.Time
	size int64
	info Info
}

// NewProber returns a Prober rooted at root.
func NewProber(root string) *Prober {
	return &Prober{Root: root}
}

// Resolve returns the filesystem path for an audio reference.
func (p *Prober) Resolve(ref string) string {
	if filepath.IsAbs(ref) || p.Root == "" {
		return ref
	}
	return filepath.Join(p.Root, ref)
}

// Info probes ref, reusing a previous result if the file is unchanged.
func (p *Prober) Info(ref string) (Info, error) {
	path := p.Resolve(ref)

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat audio: %w", err)
	}

	p.mu.Lock()
	if c, ok := p.cache[path]; ok && c.mod.Equal(st.ModTime()) && c.size == st.Size() {
		p.mu.Unlock()
		return c.info, nil
	}
	p.mu.Unlock()

	info, err := Probe(path)
	if err != nil {
		return Info{}, err
	}

	p.mu.Lock()
	if p.cache == nil {
		p.cache = make(map[string]cached)
	}
	p.cache[path] = cached{mod: st.ModTime(), size: st.Size(), info: info}
	p.mu.Unlock()

	return info, nil
}

// Duration returns the playing time of ref.
func (p *Prober) Duration(ref string) (time.Duration, error) {
	info, err := p.Info(ref)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
