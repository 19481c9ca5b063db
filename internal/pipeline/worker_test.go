package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docshape/docshape/internal/deliver"
)

const sampleHTML = `<html><body><h1>Title</h1><p>some text</p></body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(webhook *deliver.Client) *Worker {
	return NewWorker(DefaultStages(), webhook, NewConversionStats(), newHashIndex(), testLogger(), false)
}

func htmlJob(format string, force bool) *Job {
	job := NewJob("doc.html", format, force)
	job.SetFileData([]byte(sampleHTML))
	return job
}

func TestWorkerProcessCompletes(t *testing.T) {
	w := newTestWorker(nil)
	job := htmlJob("json", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v), want %q", snap.Status, snap.Progress.Errors, StatusCompleted)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash to be set")
	}
	if snap.Progress.StagesApplied != snap.Progress.TotalStages {
		t.Errorf("stages applied %d != total %d", snap.Progress.StagesApplied, snap.Progress.TotalStages)
	}
	var m map[string]any
	if err := json.Unmarshal(job.Result(), &m); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if m["type"] != "document" {
		t.Errorf("result type = %v, want document", m["type"])
	}
}

func TestWorkerProcessTextFormat(t *testing.T) {
	w := newTestWorker(nil)
	job := htmlJob("text", false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status = %q, want %q", got, StatusCompleted)
	}
	if len(job.Result()) == 0 {
		t.Error("expected non-empty text result")
	}
}

func TestWorkerUnsupportedInput(t *testing.T) {
	w := newTestWorker(nil)
	job := NewJob("image.png", "json", false)
	job.SetFileData([]byte("not a document"))
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("status = %q, want %q", got, StatusFailed)
	}
}

func TestWorkerUnsupportedOutputFormat(t *testing.T) {
	w := newTestWorker(nil)
	job := htmlJob("xml", false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("status = %q, want %q", got, StatusFailed)
	}
}

func TestWorkerDuplicateSkipped(t *testing.T) {
	w := newTestWorker(nil)

	first := htmlJob("json", false)
	w.Process(context.Background(), first)
	if got := first.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("first job status = %q, want %q", got, StatusCompleted)
	}

	second := htmlJob("json", false)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusDupSkipped {
		t.Errorf("second job status = %q, want %q", got, StatusDupSkipped)
	}
	if second.Result() != nil {
		t.Error("expected no result for skipped duplicate")
	}
}

func TestWorkerForceBypassesDedup(t *testing.T) {
	w := newTestWorker(nil)

	first := htmlJob("json", false)
	w.Process(context.Background(), first)

	second := htmlJob("json", true)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusCompleted {
		t.Errorf("forced job status = %q, want %q", got, StatusCompleted)
	}
}

func TestWorkerDeliversToWebhook(t *testing.T) {
	var received deliver.Result
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		rw.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w := newTestWorker(deliver.NewClient(srv.URL, ""))
	job := htmlJob("json", false)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("status = %q, want %q", got, StatusCompleted)
	}
	if received.JobID != job.ID {
		t.Errorf("webhook job_id = %q, want %q", received.JobID, job.ID)
	}
	if received.Format != "json" {
		t.Errorf("webhook format = %q, want json", received.Format)
	}
	if len(received.Payload) == 0 {
		t.Error("expected webhook payload")
	}
}

func TestWorkerDeliveryRejectionFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		// 400 is not retryable, so the worker should fail immediately.
		rw.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	w := newTestWorker(deliver.NewClient(srv.URL, ""))
	job := htmlJob("json", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", snap.Status, StatusFailed)
	}
	if snap.Phase != "delivering" {
		t.Errorf("phase = %q, want delivering", snap.Phase)
	}
	// The rendered result stays available even when delivery fails.
	if len(job.Result()) == 0 {
		t.Error("expected result to remain after failed delivery")
	}
}

func TestWorkerStats(t *testing.T) {
	stats := NewConversionStats()
	w := NewWorker(DefaultStages(), nil, stats, newHashIndex(), testLogger(), false)

	w.Process(context.Background(), htmlJob("json", false))
	w.Process(context.Background(), htmlJob("json", false))

	snap := stats.Snapshot()
	if snap.Completed != 1 {
		t.Errorf("completed = %d, want 1", snap.Completed)
	}
	if snap.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", snap.Duplicates)
	}
}
