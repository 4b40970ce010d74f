// Package render evaluates ranges of scene frames concurrently and tracks
// long-running render jobs.
//
// Frames are independent, so a range is cut into chunks and the chunks are
// evaluated by a bounded pool of goroutines. Results are placed by frame
// number, which makes the output identical whatever order the workers finish
// in.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-autonate/pkg/scene"
)

// Source produces the state of a single frame. *scene.Scene implements it.
type Source interface {
	Frame(f int) (scene.FrameState, error)
}

// Config holds farm parameters.
type Config struct {
	// Workers is the number of frames evaluated in parallel.
	Workers int

	// ChunkSize is the number of consecutive frames handed to a worker at once.
	ChunkSize int
}

// DefaultConfig uses one worker per CPU and one-second chunks at 30fps.
func DefaultConfig() Config {
	return Config{
		Workers:   runtime.NumCPU(),
		ChunkSize: 30,
	}
}

// Option configures a Farm.
type Option func(*Farm)

// WithWorkers sets the worker count. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(f *Farm) {
		if n > 0 {
			f.cfg.Workers = n
		}
	}
}

// WithChunkSize sets how many frames a worker takes at once.
func WithChunkSize(n int) Option {
	return func(f *Farm) {
		if n > 0 {
			f.cfg.ChunkSize = n
		}
	}
}

// WithLogger sets the farm's logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Farm) {
		if l != nil {
			f.logger = l
		}
	}
}

// Farm renders frame ranges with a bounded worker pool.
type Farm struct {
	cfg    Config
	logger *slog.Logger
}

// NewFarm creates a farm.
func NewFarm(opts ...Option) *Farm {
	f := &Farm{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "render")
	return f
}

// Config returns the farm configuration.
func (f *Farm) Config() Config {
	return f.cfg
}

// Render evaluates frames [from, to). Element i of the result is frame
// from+i. The first error cancels the remaining work.
func (f *Farm) Render(ctx context.Context, src Source, from, to int) ([]scene.FrameState, error) {
	if to <= from || from < 0 {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, from, to)
	}

	out := make([]scene.FrameState, to-from)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)

	for start := from; start < to; start += f.cfg.ChunkSize {
		end := min(start+f.cfg.ChunkSize, to)
		g.Go(func() error {
			for fr := start; fr < end; fr++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fs, err := src.Frame(fr)
				if err != nil {
					return fmt.Errorf("frame %d: %w", fr, err)
				}
				out[fr-from] = fs
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Sink receives frames in order.
type Sink func(scene.FrameState) error

// Stream evaluates [from, to) and hands each frame to sink in frame order.
// At most Workers*ChunkSize frames are held in memory at a time.
func (f *Farm) Stream(ctx context.Context, src Source, from, to int, sink Sink) error {
	if to <= from || from < 0 {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, from, to)
	}

	batch := f.cfg.Workers * f.cfg.ChunkSize
	for base := from; base < to; base += batch {
		frames, err := f.Render(ctx, src, base, min(base+batch, to))
		if err != nil {
			return err
		}
		for _, fs := range frames {
			if err := sink(fs); err != nil {
				return err
			}
		}
	}
	return nil
}
