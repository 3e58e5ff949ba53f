package store

import "time"

// JobStatus discriminates the lifecycle state of a queued Job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobType discriminates what work a Job asks a worker to do.
type JobType string

const (
	JobDeduplication JobType = "deduplication"
	JobSummarization JobType = "summarization"
)

// Job is one row of the jobs table: a unit of queued work claimed,
// processed, and completed or retried by a worker.
type Job struct {
	ID           string
	Type         JobType
	Payload      []byte
	Status       JobStatus
	Attempts     int
	MaxAttempts  int
	ScheduledFor time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Result       []byte
	ErrorMessage *string
	UpdatedAt    time.Time
}

// Article is a news item tracked through deduplication and summarization.
type Article struct {
	ID          string
	Title       string
	Content     *string
	SummaryRaw  *string
	Summary2    *string
	SimHash     *string
	ClusterID   *string
	SourceID    *string
	TsPublished time.Time
	UpdatedAt   time.Time
}

// Cluster is a set of near-duplicate articles, represented downstream by a
// single chosen member.
type Cluster struct {
	ID            string
	RepArticleID  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Source supplies a trust score consulted when electing a cluster
// representative.
type Source struct {
	ID         string
	TrustScore float64
}

