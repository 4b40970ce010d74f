package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-autonate/pkg/scene"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the job will not change again.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// Job is a snapshot of a render job.
type Job struct {
	ID         string     `json:"id"`
	SceneID    string     `json:"scene_id"`
	From       int        `json:"from"`
	To         int        `json:"to"`
	Status     Status     `json:"status"`
	Completed  int        `json:"completed"`
	Error      string     `json:"error,omitempty"`
	Output     string     `json:"output,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Total returns the number of frames in the job.
func (j Job) Total() int {
	return j.To - j.From
}

// Progress returns the completed fraction in [0, 1].
func (j Job) Progress() float64 {
	if j.Total() <= 0 {
		return 0
	}
	return float64(j.Completed) / float64(j.Total())
}

// Renderable is a scene that can be submitted as a job.
type Renderable interface {
	Source
	ID() string
}

// UpdateFunc is called whenever a job changes state or makes progress.
type UpdateFunc func(Job)

// JobsOption configures a Jobs manager.
type JobsOption func(*Jobs)

// WithStore persists job records.
func WithStore(s Store) JobsOption {
	return func(j *Jobs) { j.store = s }
}

// WithOutputDir writes each job's frames to <dir>/<id>.jsonl instead of
// keeping them in memory.
func WithOutputDir(dir string) JobsOption {
	return func(j *Jobs) { j.dir = dir }
}

// WithUpdateFunc sets the progress callback.
func WithUpdateFunc(fn UpdateFunc) JobsOption {
	return func(j *Jobs) { j.onUpdate = fn }
}

// WithMaxConcurrent limits how many jobs run at once. Others stay queued.
func WithMaxConcurrent(n int) JobsOption {
	return func(j *Jobs) {
		if n > 0 {
			j.sem = make(chan struct{}, n)
		}
	}
}

// WithJobsLogger sets the manager's logger.
func WithJobsLogger(l *slog.Logger) JobsOption {
	return func(j *Jobs) {
		if l != nil {
			j.logger = l
		}
	}
}

// Jobs runs render jobs in the background on a Farm.
type Jobs struct {
	farm     *Farm
	store    Store
	dir      string
	onUpdate UpdateFunc
	sem      chan struct{}
	logger   *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	job    Job
	frames []scene.FrameState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJobs creates a job manager. By default one job runs at a time.
func NewJobs(farm *Farm, opts ...JobsOption) *Jobs {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Jobs{
		farm:   farm,
		sem:    make(chan struct{}, 1),
		logger: slog.Default(),
		jobs:   make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = j.logger.With("component", "jobs")
	return j
}

// Submit queues frames [from, to) of s and returns immediately.
func (j *Jobs) Submit(s Renderable, from, to int) (Job, error) {
	if to <= from || from < 0 {
		return Job{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, from, to)
	}
	if err := j.ctx.Err(); err != nil {
		return Job{}, fmt.Errorf("jobs closed: %w", err)
	}

	ctx, cancel := context.WithCancel(j.ctx)
	e := &entry{
		job: Job{
			ID:        uuid.New().String(),
			SceneID:   s.ID(),
			From:      from,
			To:        to,
			Status:    StatusQueued,
			CreatedAt: time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if j.dir != "" {
		e.job.Output = filepath.Join(j.dir, e.job.ID+".jsonl")
	}

	j.mu.Lock()
	j.jobs[e.job.ID] = e
	snapshot := e.job
	j.mu.Unlock()

	j.logger.Info("job queued", "job", snapshot.ID, "scene", snapshot.SceneID, "from", from, "to", to)
	j.publish(snapshot)

	j.wg.Add(1)
	go j.run(ctx, e, s)
	return snapshot, nil
}

func (j *Jobs) run(ctx context.Context, e *entry, src Source) {
	defer j.wg.Done()
	defer close(e.done)
	defer e.cancel()

	select {
	case j.sem <- struct{}{}:
		defer func() { <-j.sem }()
	case <-ctx.Done():
		j.finish(e, ctx.Err())
		return
	}

	now := time.Now()
	j.update(e, func(job *Job) {
		job.Status = StatusRunning
		job.StartedAt = &now
	})

	sink, closeSink, err := j.sink(e)
	if err != nil {
		j.finish(e, err)
		return
	}

	total := e.job.Total()
	step := max(1, j.farm.Config().ChunkSize)
	completed := 0
	err = j.farm.Stream(ctx, src, e.job.From, e.job.To, func(fs scene.FrameState) error {
		if err := sink(fs); err != nil {
			return err
		}
		completed++
		if completed%step == 0 && completed < total {
			n := completed
			j.update(e, func(job *Job) { job.Completed = n })
		}
		return nil
	})
	if cerr := closeSink(); err == nil {
		err = cerr
	}
	if err == nil {
		j.mu.Lock()
		e.job.Completed = total
		j.mu.Unlock()
	}
	j.finish(e, err)
}

func (j *Jobs) sink(e *entry) (Sink, func() error, error) {
	if e.job.Output == "" {
		sink := func(fs scene.FrameState) error {
			j.mu.Lock()
			e.frames = append(e.frames, fs)
			j.mu.Unlock()
			return nil
		}
		return sink, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(e.job.Output), 0755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(e.job.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return JSONLSink(f), f.Close, nil
}

func (j *Jobs) finish(e *entry, err error) {
	now := time.Now()
	j.update(e, func(job *Job) {
		job.FinishedAt = &now
		switch {
		case err == nil:
			job.Status = StatusDone
		case errors.Is(err, context.Canceled):
			job.Status = StatusCanceled
		default:
			job.Status = StatusFailed
			job.Error = err.Error()
		}
	})

	j.mu.RLock()
	job := e.job
	j.mu.RUnlock()

	if job.Status == StatusFailed {
		j.logger.Warn("job failed", "job", job.ID, "scene", job.SceneID, "error", job.Error)
	} else {
		j.logger.Info("job finished", "job", job.ID, "scene", job.SceneID, "status", job.Status, "frames", job.Completed)
	}
}

// update applies fn under the lock, persists the result and publishes it.
func (j *Jobs) update(e *entry, fn func(*Job)) {
	j.mu.Lock()
	fn(&e.job)
	snapshot := e.job
	j.mu.Unlock()

	if j.store != nil && (snapshot.Status.Terminal() || (snapshot.Status == StatusRunning && snapshot.Completed == 0)) {
		if err := j.store.Save(snapshot); err != nil {
			j.logger.Warn("failed to persist job", "job", snapshot.ID, "error", err)
		}
	}
	j.publish(snapshot)
}

func (j *Jobs) publish(job Job) {
	if j.onUpdate != nil {
		j.onUpdate(job)
	}
}

// Get returns a job by ID, falling back to persisted records.
func (j *Jobs) Get(id string) (Job, error) {
	j.mu.RLock()
	e, ok := j.jobs[id]
	var job Job
	if ok {
		job = e.job
	}
	j.mu.RUnlock()

	if ok {
		return job, nil
	}
	if j.store != nil {
		return j.store.Get(id)
	}
	return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// List returns all known jobs, newest first.
func (j *Jobs) List() []Job {
	all := make(map[string]Job)
	if j.store != nil {
		if stored, err := j.store.List(); err == nil {
			for _, job := range stored {
				all[job.ID] = job
			}
		}
	}

	j.mu.RLock()
	for id, e := range j.jobs {
		all[id] = e.job
	}
	j.mu.RUnlock()

	return sortJobs(all)
}

// Frames returns the rendered frames of a finished job.
func (j *Jobs) Frames(id string) ([]scene.FrameState, error) {
	j.mu.RLock()
	e, ok := j.jobs[id]
	var (
		job    Job
		frames []scene.FrameState
	)
	if ok {
		job = e.job
		frames = e.frames
	}
	j.mu.RUnlock()

	if !ok {
		var err error
		if job, err = j.Get(id); err != nil {
			return nil, err
		}
	}
	if job.Status != StatusDone {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobNotFinished, id, job.Status)
	}
	if job.Output == "" {
		return frames, nil
	}

	f, err := os.Open(job.Output)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// Cancel stops a queued or running job.
func (j *Jobs) Cancel(id string) error {
	j.mu.RLock()
	e, ok := j.jobs[id]
	j.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	e.cancel()
	return nil
}

// Wait blocks until the job finishes or ctx is done.
func (j *Jobs) Wait(ctx context.Context, id string) (Job, error) {
	j.mu.RLock()
	e, ok := j.jobs[id]
	j.mu.RUnlock()
	if !ok {
		return j.Get(id)
	}

	select {
	case <-e.done:
		return j.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Close cancels every job and waits for the workers to exit.
func (j *Jobs) Close() {
	j.cancel()
	j.wg.Wait()
}

// Active returns the IDs of jobs that have not finished, sorted.
func (j *Jobs) Active() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var ids []string
	for id, e := range j.jobs {
		if !e.job.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
