package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/docshape/docshape/internal/deliver"
	"github.com/docshape/docshape/internal/extract"
	"github.com/docshape/docshape/internal/sink"
)

// Worker processes a single conversion job.
type Worker struct {
	stages      []StageFunc
	stageErr    error
	totalStages int
	webhook     *deliver.Client
	stats       *ConversionStats
	seen        *hashIndex
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(specs []StageSpec, webhook *deliver.Client, stats *ConversionStats, seen *hashIndex, log *slog.Logger, pdfFallback bool) *Worker {
	stages, err := BuildStages(specs)
	return &Worker{
		stages:      stages,
		stageErr:    err,
		totalStages: len(specs),
		webhook:     webhook,
		stats:       stats,
		seen:        seen,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process runs the full conversion pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	if w.stageErr != nil {
		log.Error("pipeline misconfigured", "error", w.stageErr)
		job.AddError(w.stageErr.Error())
		job.SetStatus(StatusFailed, "setup")
		w.stats.RecordFailed()
		return
	}

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	ex, err := extract.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		w.stats.RecordFailed()
		return
	}
	if pdfEx, ok := ex.(*extract.PDFExtractor); ok {
		pdfEx.FallbackPdftotext = w.pdfFallback
	}

	doc, err := ex.Extract(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		w.stats.RecordFailed()
		return
	}

	// Phase 1.5: Dedup check on the extracted text.
	job.SetContentHash(ContentHashHex([]byte(doc.PlainText())))
	if !job.Force {
		if existingDocID, ok := w.seen.Lookup(job.ContentHash); ok {
			log.Info("duplicate document, skipping", "existing_doc_id", existingDocID)
			job.SetStatus(StatusDupSkipped, "dedup")
			w.stats.RecordDuplicate()
			return
		}
	}

	// Phase 2: Transform
	job.SetStatus(StatusTransforming, "transforming")
	job.SetTotalStages(w.totalStages)
	for i, stage := range w.stages {
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "transforming")
			w.stats.RecordFailed()
			return
		}
		doc, err = stage(doc)
		if err != nil {
			log.Error("stage failed", "stage", i, "error", err)
			job.AddError(fmt.Sprintf("stage %d: %s", i, err))
			job.SetStatus(StatusFailed, "transforming")
			w.stats.RecordFailed()
			return
		}
		job.IncrStagesApplied()
	}
	log.Info("transform complete", "stages", w.totalStages)

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	s, err := sink.ForFormat(job.Format)
	if err != nil {
		log.Error("unsupported output format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		w.stats.RecordFailed()
		return
	}
	out, err := s.Render(doc)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		w.stats.RecordFailed()
		return
	}
	job.SetResult(out)
	w.seen.Record(job.ContentHash, job.DocID)

	// Phase 4: Deliver, when a webhook is configured.
	if w.webhook != nil {
		job.SetStatus(StatusDelivering, "delivering")
		if err := w.deliverResult(ctx, job, out); err != nil {
			log.Error("delivery failed", "error", err)
			job.AddError(fmt.Sprintf("deliver: %s", err))
			job.SetStatus(StatusFailed, "delivering")
			w.stats.RecordFailed()
			return
		}
		log.Info("result delivered", "bytes", len(out))
	}

	job.SetStatus(StatusCompleted, "done")
	w.stats.RecordCompleted(len(out), time.Since(start))
	log.Info("conversion complete", "format", job.Format, "bytes", len(out), "duration_ms", time.Since(start).Milliseconds())
}

// deliverResult pushes the rendered output with bounded retries.
func (w *Worker) deliverResult(ctx context.Context, job *Job, out []byte) error {
	res := deliver.Result{
		JobID:       job.ID,
		DocID:       job.DocID,
		Filename:    job.Filename,
		Format:      job.Format,
		ContentHash: job.ContentHash,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		Payload:     resultPayload(job.Format, out),
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = w.webhook.Push(ctx, res)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		w.log.Warn("retryable delivery error", "job_id", job.ID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// resultPayload wraps the rendered bytes for JSON transport. JSON
// output embeds as-is; other formats go through a string field.
func resultPayload(format string, out []byte) json.RawMessage {
	if format == "json" {
		return json.RawMessage(out)
	}
	quoted, err := json.Marshal(string(out))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}
