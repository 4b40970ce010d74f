package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Store persists job records.
type Store interface {
	// Save creates or updates a job record
	Save(job Job) error

	// Get retrieves a job record by ID
	Get(id string) (Job, error)

	// List returns all job records, newest first
	List() ([]Job, error)

	// Delete removes a job record by ID
	Delete(id string) error

	// Count returns the number of stored records
	Count() int
}

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path string
	jobs map[string]Job
	mu   sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
	Jobs      []Job  `json:"jobs"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path: path,
		jobs: make(map[string]Job),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.jobs = make(map[string]Job, len(stored.Jobs))
	for _, job := range stored.Jobs {
		s.jobs[job.ID] = job
	}
	return nil
}

// save writes the store to disk. Callers hold the write lock.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Jobs:      sortJobs(s.jobs),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save creates or updates a job record.
func (s *JSONStore) Save(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job
	return s.save()
}

// Get retrieves a job record by ID.
func (s *JSONStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// List returns all job records, newest first.
func (s *JSONStore) List() ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortJobs(s.jobs), nil
}

// Delete removes a job record by ID.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	delete(s.jobs, id)
	return s.save()
}

// Count returns the number of stored records.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func sortJobs(m map[string]Job) []Job {
	jobs := make([]Job, 0, len(m))
	for _, j := range m {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.After(jobs[b].CreatedAt)
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs
}
