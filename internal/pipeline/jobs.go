package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusExtracting   JobStatus = "extracting"
	StatusTransforming JobStatus = "transforming"
	StatusRendering    JobStatus = "rendering"
	StatusDelivering   JobStatus = "delivering"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusDupSkipped   JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document conversion.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Format   string    `json:"format"`
	Force    bool      `json:"force"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   []byte
	errors   []string
}

// NewJob creates a queued job with fresh IDs.
func NewJob(filename, format string, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		DocID:     generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Format:    format,
		Force:     force,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Progress tracks conversion progress.
type Progress struct {
	TotalStages   int      `json:"total_stages"`
	StagesApplied int      `json:"stages_applied"`
	ResultBytes   int      `json:"result_bytes"`
	Errors        []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	snaps := make([]JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snaps = append(snaps, job.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps
}

// Delete removes a job. It reports whether the job existed.
func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrStagesApplied atomically increments the applied stage count.
func (j *Job) IncrStagesApplied() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.StagesApplied++
	j.UpdatedAt = time.Now()
}

// SetTotalStages records the pipeline stage count.
func (j *Job) SetTotalStages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalStages = n
	j.UpdatedAt = time.Now()
}

// SetContentHash records the extracted content hash.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult stores the rendered output bytes.
func (j *Job) SetResult(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = data
	j.Progress.ResultBytes = len(data)
	j.UpdatedAt = time.Now()
}

// Result returns the rendered output bytes, or nil before rendering.
func (j *Job) Result() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Format:      j.Format,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		Progress: Progress{
			TotalStages:   j.Progress.TotalStages,
			StagesApplied: j.Progress.StagesApplied,
			ResultBytes:   j.Progress.ResultBytes,
			Errors:        errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
