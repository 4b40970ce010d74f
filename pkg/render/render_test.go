package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-autonate/pkg/scene"
)

func walkScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.LoadEmbedded("autonate-walk")
	require.NoError(t, err)
	return s
}

func sequential(t *testing.T, s *scene.Scene, from, to int) []scene.FrameState {
	t.Helper()
	out := make([]scene.FrameState, 0, to-from)
	for f := from; f < to; f++ {
		fs, err := s.Frame(f)
		require.NoError(t, err)
		out = append(out, fs)
	}
	return out
}

var errBroken = errors.New("broken frame")

// failingSource fails on one frame and counts calls.
type failingSource struct {
	bad   int
	mu    sync.Mutex
	calls int
}

func (s *failingSource) Frame(f int) (scene.FrameState, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if f == s.bad {
		return scene.FrameState{}, errBroken
	}
	return scene.FrameState{Frame: f}, nil
}

func (s *failingSource) ID() string { return "failing" }

// blockingSource blocks every frame until release is closed.
type blockingSource struct {
	release chan struct{}
}

func (s *blockingSource) Frame(f int) (scene.FrameState, error) {
	<-s.release
	return scene.FrameState{Frame: f}, nil
}

func (s *blockingSource) ID() string { return "blocking" }

func TestFarm_RenderMatchesSequential(t *testing.T) {
	s := walkScene(t)
	n := s.DurationFrames()

	for _, cfg := range []Config{{1, 1}, {4, 7}, {16, 30}, {3, 1000}} {
		t.Run(fmt.Sprintf("workers=%d/chunk=%d", cfg.Workers, cfg.ChunkSize), func(t *testing.T) {
			farm := NewFarm(WithWorkers(cfg.Workers), WithChunkSize(cfg.ChunkSize))
			got, err := farm.Render(context.Background(), s, 0, n)
			require.NoError(t, err)
			assert.Equal(t, sequential(t, s, 0, n), got)
		})
	}

	farm := NewFarm(WithWorkers(4), WithChunkSize(10))
	got, err := farm.Render(context.Background(), s, 100, 140)
	require.NoError(t, err)
	require.Len(t, got, 40)
	assert.Equal(t, 100, got[0].Frame)
	assert.Equal(t, 139, got[39].Frame)
}

func TestFarm_RenderError(t *testing.T) {
	src := &failingSource{bad: 13}
	farm := NewFarm(WithWorkers(2), WithChunkSize(5))

	_, err := farm.Render(context.Background(), src, 0, 1000)
	require.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "frame 13")
	assert.Less(t, src.calls, 1000, "remaining work is cancelled")
}

func TestFarm_InvalidRange(t *testing.T) {
	farm := NewFarm()
	for _, r := range [][2]int{{10, 10}, {10, 5}, {-1, 5}} {
		_, err := farm.Render(context.Background(), &failingSource{bad: -1}, r[0], r[1])
		assert.ErrorIs(t, err, ErrInvalidRange, "range %v", r)
	}
	err := farm.Stream(context.Background(), &failingSource{bad: -1}, 5, 5, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestFarm_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFarm().Render(ctx, &failingSource{bad: -1}, 0, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFarm_StreamInOrder(t *testing.T) {
	s := walkScene(t)
	farm := NewFarm(WithWorkers(8), WithChunkSize(3))

	var frames []int
	err := farm.Stream(context.Background(), s, 5, 205, func(fs scene.FrameState) error {
		frames = append(frames, fs.Frame)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 200)
	for i, f := range frames {
		if f != 5+i {
			t.Fatalf("position %d holds frame %d", i, f)
		}
	}

	stop := errors.New("stop")
	err = farm.Stream(context.Background(), s, 0, 100, func(fs scene.FrameState) error {
		if fs.Frame == 10 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestJSONL_RoundTrip(t *testing.T) {
	s, err := scene.LoadEmbedded("comedy-skit")
	require.NoError(t, err)
	frames := sequential(t, s, 0, 60)

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, frames))
	assert.Equal(t, 60, bytes.Count(buf.Bytes(), []byte("\n")))

	back, err := ReadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, frames, back)

	_, err = ReadJSONL(bytes.NewBufferString("{\"frame\": 1}\nnot json\n"))
	assert.Error(t, err)
}

func waitJob(t *testing.T, jobs *Jobs, id string) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	job, err := jobs.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestJobs_InMemory(t *testing.T) {
	s := walkScene(t)

	var (
		mu       sync.Mutex
		statuses []Status
	)
	jobs := NewJobs(NewFarm(WithWorkers(4), WithChunkSize(10)), WithUpdateFunc(func(j Job) {
		mu.Lock()
		defer mu.Unlock()
		if len(statuses) == 0 || statuses[len(statuses)-1] != j.Status {
			statuses = append(statuses, j.Status)
		}
	}))
	defer jobs.Close()

	job, err := jobs.Submit(s, 0, 120)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, "autonate-walk", job.SceneID)
	assert.Len(t, job.ID, 36)

	done := waitJob(t, jobs, job.ID)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, 120, done.Completed)
	assert.Equal(t, 1.0, done.Progress())
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)

	frames, err := jobs.Frames(job.ID)
	require.NoError(t, err)
	assert.Equal(t, sequential(t, s, 0, 120), frames)

	mu.Lock()
	assert.Equal(t, []Status{StatusQueued, StatusRunning, StatusDone}, statuses)
	mu.Unlock()

	assert.Empty(t, jobs.Active())
	require.Len(t, jobs.List(), 1)
}

func TestJobs_Failure(t *testing.T) {
	jobs := NewJobs(NewFarm(WithWorkers(2), WithChunkSize(4)))
	defer jobs.Close()

	job, err := jobs.Submit(&failingSource{bad: 9}, 0, 50)
	require.NoError(t, err)

	done := waitJob(t, jobs, job.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Contains(t, done.Error, "broken frame")

	_, err = jobs.Frames(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFinished)
}

func TestJobs_CancelAndQueue(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}
	jobs := NewJobs(NewFarm(WithWorkers(1), WithChunkSize(1)), WithMaxConcurrent(1))
	defer jobs.Close()

	first, err := jobs.Submit(src, 0, 10)
	require.NoError(t, err)
	second, err := jobs.Submit(src, 0, 10)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{first.ID, second.ID}, jobs.Active())

	_, err = jobs.Frames(second.ID)
	assert.ErrorIs(t, err, ErrJobNotFinished)

	require.NoError(t, jobs.Cancel(second.ID))
	assert.Equal(t, StatusCanceled, waitJob(t, jobs, second.ID).Status)

	close(src.release)
	assert.Equal(t, StatusDone, waitJob(t, jobs, first.ID).Status)

	assert.ErrorIs(t, jobs.Cancel("nope"), ErrJobNotFound)
	_, err = jobs.Get("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobs_OutputDirAndStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(filepath.Join(dir, "jobs.json"))
	require.NoError(t, err)

	s := walkScene(t)
	jobs := NewJobs(NewFarm(WithWorkers(3), WithChunkSize(8)), WithStore(store), WithOutputDir(dir))

	job, err := jobs.Submit(s, 10, 70)
	require.NoError(t, err)
	done := waitJob(t, jobs, job.ID)
	jobs.Close()

	require.Equal(t, StatusDone, done.Status)
	assert.Equal(t, filepath.Join(dir, job.ID+".jsonl"), done.Output)
	_, err = os.Stat(done.Output)
	require.NoError(t, err)

	// A fresh manager over the same store still serves the finished job.
	reopened, err := NewJSONStore(filepath.Join(dir, "jobs.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())

	later := NewJobs(NewFarm(), WithStore(reopened))
	defer later.Close()

	got, err := later.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, 60, got.Completed)

	frames, err := later.Frames(job.ID)
	require.NoError(t, err)
	assert.Equal(t, sequential(t, s, 10, 70), frames)
	require.Len(t, later.List(), 1)

	require.NoError(t, reopened.Delete(job.ID))
	assert.ErrorIs(t, reopened.Delete(job.ID), ErrJobNotFound)
}
