package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docshape/docshape/internal/config"
	"github.com/docshape/docshape/internal/deliver"
)

// Orchestrator manages the document conversion pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	stages  []StageSpec
	webhook *deliver.Client
	stats   *ConversionStats
	seen    *hashIndex
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// hashIndex remembers content hashes of completed conversions so
// resubmitted documents can be skipped.
type hashIndex struct {
	mu   sync.Mutex
	docs map[string]string
}

func newHashIndex() *hashIndex {
	return &hashIndex{docs: make(map[string]string)}
}

// Lookup returns the doc ID previously recorded for a hash.
func (h *hashIndex) Lookup(hash string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	docID, ok := h.docs[hash]
	return docID, ok
}

func (h *hashIndex) Record(hash, docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[hash] = docID
}

// NewOrchestrator creates the pipeline. The webhook client may be nil
// when no delivery endpoint is configured.
func NewOrchestrator(cfg config.Config, stages []StageSpec, webhook *deliver.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		stages:  stages,
		webhook: webhook,
		stats:   NewConversionStats(),
		seen:    newHashIndex(),
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.stages, o.webhook, o.stats, o.seen, o.log, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	o.stats.RecordSubmit(job.Format, len(job.FileData()))
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns the job store for listing and deletion.
func (o *Orchestrator) Jobs() *JobStore {
	return o.jobs
}

// Stats returns the service counters.
func (o *Orchestrator) Stats() *ConversionStats {
	return o.stats
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
