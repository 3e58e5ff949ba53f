// Package worker implements the total poll loop shared by both worker
// binaries: claim a job, hand it to a queue.JobProcessor, and route the
// outcome through completion or backoff-retry. Adapted from the teacher's
// daemon run-loop and signal-handling idiom, generalized from one
// in-process task type to any queue.JobProcessor.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/tooitw/morning-pulse-nlp/internal/logger"
	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

// Runtime drives one queue.JobProcessor's poll loop against a JobStore
// until its context is canceled. A processor's Process is total from the
// Runtime's perspective: any error it returns is caught here and funneled
// through RetryJob/FailJob, never propagated out of Run (spec section 7's
// propagation policy).
type Runtime struct {
	Store     queue.JobStore
	Processor queue.JobProcessor
	Logger    *slog.Logger
}

// Run executes the claim -> process -> complete-or-retry loop until ctx is
// canceled, at which point it returns nil once any in-flight job finishes
// (spec section 4.8: "handle an interrupt signal... drain").
func (r *Runtime) Run(ctx context.Context) error {
	jobType := r.Processor.JobType()
	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := r.Store.ClaimJob(ctx, jobType)
		if err != nil {
			if errors.Is(err, store.ErrNoJob) {
				if !r.sleep(ctx) {
					return nil
				}
				continue
			}
			r.Logger.Error("claim failed", "job_type", jobType, "error", err)
			if !r.sleep(ctx) {
				return nil
			}
			continue
		}

		r.executeJob(ctx, job)
	}
}

func (r *Runtime) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.Processor.PollInterval()):
		return true
	}
}

func (r *Runtime) executeJob(ctx context.Context, job *store.Job) {
	log := logger.WithJob(r.Logger, job.ID, string(job.Type))
	log.Info("job claimed")

	result, err := r.Processor.Process(ctx, *job)
	if err != nil {
		log.Warn("job failed, scheduling retry evaluation", "error", err)
		if retryErr := r.Store.RetryJob(ctx, job.ID, job.Attempts, job.MaxAttempts, err.Error()); retryErr != nil {
			log.Error("failed to record retry/failure", "error", retryErr)
		}
		return
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		log.Error("failed to marshal job result", "error", marshalErr)
		if retryErr := r.Store.RetryJob(ctx, job.ID, job.Attempts, job.MaxAttempts, marshalErr.Error()); retryErr != nil {
			log.Error("failed to record retry/failure", "error", retryErr)
		}
		return
	}

	if err := r.Store.CompleteJob(ctx, job.ID, payload); err != nil {
		log.Error("failed to mark job complete", "error", err)
		return
	}
	log.Info("job completed")
}
