package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/docshape/docshape/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:  2,
		MaxQueueSize: 4,
		JobTTL:       time.Hour,
	}
}

func TestOrchestratorProcessesJob(t *testing.T) {
	o := NewOrchestrator(testConfig(), DefaultStages(), nil, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := htmlJob("json", false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		snap := o.GetJob(job.ID).Snapshot()
		if snap.Status == StatusCompleted {
			break
		}
		if snap.Status == StatusFailed {
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		select {
		case <-deadline:
			t.Fatalf("job did not complete, status %q", snap.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if o.Stats().Snapshot().Submitted != 1 {
		t.Error("expected one submitted job in stats")
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	// No workers started, so the queue never drains.
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, DefaultStages(), nil, testLogger())

	if err := o.Submit(htmlJob("json", false)); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	overflow := htmlJob("json", false)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue-full error")
	}
	if got := overflow.Snapshot().Status; got != StatusFailed {
		t.Errorf("overflow status = %q, want %q", got, StatusFailed)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("queue depth = %d, want 1", o.QueueDepth())
	}
}

func TestOrchestratorJobsAccess(t *testing.T) {
	o := NewOrchestrator(testConfig(), DefaultStages(), nil, testLogger())
	job := htmlJob("json", false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(o.Jobs().List()) != 1 {
		t.Error("expected one job in store")
	}
	if !o.Jobs().Delete(job.ID) {
		t.Error("expected job deletion to succeed")
	}
}
