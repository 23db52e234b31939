package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"chemtutor/features/job"
	"chemtutor/features/material"
	"chemtutor/internal/index"
	"chemtutor/internal/middleware"
)

const HandlerName = "ingest-worker"

type Processor interface {
	Process(ctx context.Context, task material.Task) error
}

// IngestConsumer runs ingest.task messages. Returning an error requeues the
// message, so the last attempt and permanent failures are parked in
// failed_jobs instead.
type IngestConsumer struct {
	processor   Processor
	jobs        job.Repository
	maxAttempts uint16
	timeout     time.Duration
}

func NewIngestConsumer(p Processor, jobs job.Repository, maxAttempts uint16, timeout time.Duration) *IngestConsumer {
	return &IngestConsumer{processor: p, jobs: jobs, maxAttempts: maxAttempts, timeout: timeout}
}

func (c *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task material.Task
	if err := json.Unmarshal(m.Body, &task); err != nil || task.MaterialID == "" {
		// Poison pill: never retry
		slog.Error("poison pill: invalid ingest task", "error", err)
		return nil
	}

	ctx := context.Background()
	if task.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, task.CorrelationID)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	slog.InfoContext(ctx, "processing ingest task", "material_id", task.MaterialID, "attempt", m.Attempts)

	err := c.processor.Process(ctx, task)
	if err == nil {
		return nil
	}

	permanent := errors.Is(err, index.ErrEmptyCorpus)
	if !permanent && m.Attempts < c.maxAttempts {
		slog.WarnContext(ctx, "ingest attempt failed, requeueing", "material_id", task.MaterialID, "attempt", m.Attempts, "error", err)
		return err
	}

	slog.ErrorContext(ctx, "ingestion failed", "material_id", task.MaterialID, "error", err)
	failed := &job.Job{
		MaterialID: task.MaterialID,
		Handler:    HandlerName,
		Payload:    m.Body,
		Error:      err.Error(),
		Retries:    int(m.Attempts),
	}
	if saveErr := c.jobs.Save(context.WithoutCancel(ctx), failed); saveErr != nil {
		slog.ErrorContext(ctx, "failed to save failed job", "error", saveErr)
		return err
	}
	slog.InfoContext(ctx, "saved failed job for retry", "job_id", failed.ID)
	return nil
}
