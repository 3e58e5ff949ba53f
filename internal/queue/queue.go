// Package queue defines the dispatcher's view of a job: the typed payload/
// result shapes decoded from the store's raw JSON columns, and the
// JobProcessor capability a worker implements to handle one job type.
// Keeping this here, rather than in internal/store, mirrors the teacher's
// split between a generic row store and task semantics.
package queue

import (
	"context"
	"time"

	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

// JobProcessor is the capability a worker implements to handle one job
// type. internal/worker.Runtime holds a JobProcessor value and drives it —
// composition over the reference implementation's abstract JobProcessor
// base class (spec section 9).
type JobProcessor interface {
	JobType() string
	PollInterval() time.Duration
	Process(ctx context.Context, job store.Job) (result any, err error)
}

// JobStore is the subset of *store.Store the dispatcher needs to drive the
// claim/complete/retry protocol. Exists as an interface so tests can
// substitute an in-memory fake without a live Postgres instance (spec
// section 8's property 5 test strategy) — *store.Store satisfies this
// interface with no adapter code.
type JobStore interface {
	ClaimJob(ctx context.Context, jobType string) (*store.Job, error)
	CompleteJob(ctx context.Context, id string, result []byte) error
	RetryJob(ctx context.Context, id string, attempts, maxAttempts int, errMsg string) error
	FailJob(ctx context.Context, id string, errMsg string) error
}

// DeduplicationPayload is the jobs.payload shape for a "deduplication" job.
type DeduplicationPayload struct {
	ArticleIDs []string `json:"article_ids"`
}

// SummarizationPayload is the jobs.payload shape for a "summarization" job.
type SummarizationPayload struct {
	ArticleIDs []string `json:"article_ids"`
}

// DeduplicationResult is the jobs.result shape recorded by a completed
// deduplication job.
type DeduplicationResult struct {
	ArticlesProcessed int `json:"articles_processed"`
	// ArticlesClustered counts only articles matched into an existing
	// cluster, not every article processed (original_source's
	// deduplicator.py increments this solely inside its "similar found"
	// branch).
	ArticlesClustered int `json:"articles_clustered"`
	ClustersCreated   int `json:"clusters_created"`
}

// SummarizationResult is the jobs.result shape recorded by a completed
// summarization job.
type SummarizationResult struct {
	ArticlesProcessed  int `json:"articles_processed"`
	SummariesGenerated int `json:"summaries_generated"`
	SummariesVerified  int `json:"summaries_verified"`
	SummariesFailed    int `json:"summaries_failed"`
}
