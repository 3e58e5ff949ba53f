package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNoJob is returned by ClaimJob when no eligible job was available.
var ErrNoJob = errors.New("store: no claimable job")

// claimSelectSQL is kept as a named constant so its WHERE/ORDER/LIMIT/
// FOR UPDATE SKIP LOCKED shape can be asserted textually in tests without a
// real Postgres instance (spec section 8's property 5 test strategy).
const claimSelectSQL = `
	SELECT id, type, payload, status, attempts, max_attempts,
	       scheduled_for, started_at, completed_at, result, error_message, updated_at
	FROM jobs
	WHERE type = $1 AND status = 'pending' AND scheduled_for <= now()
	ORDER BY scheduled_for ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
`

// ClaimJob atomically claims the oldest eligible pending job of jobType:
// SELECT ... FOR UPDATE SKIP LOCKED to pick a row no other claimant already
// holds, then UPDATE it to processing in the same transaction, returning
// the claimed row. This is the sole coordination primitive multiple worker
// processes/goroutines rely on (spec section 4.7).
func (s *Store) ClaimJob(ctx context.Context, jobType string) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var j Job
	row := tx.QueryRow(ctx, claimSelectSQL, jobType)
	if err := scanJob(row, &j); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("select claimable job: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE jobs
		SET status = 'processing', started_at = now(), attempts = attempts + 1, updated_at = now()
		WHERE id = $1
	`, j.ID)
	if err != nil {
		return nil, fmt.Errorf("mark job processing: %w", err)
	}
	j.Status = JobProcessing
	j.Attempts++

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return &j, nil
}

// CompleteJob marks a job completed with the given JSON result.
func (s *Store) CompleteJob(ctx context.Context, id string, result []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'completed', result = $2, completed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, result)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return nil
}

// RetryJob reschedules a job for retry after backoff, or fails it if
// attempts are exhausted. Callers pass the job's current attempts/
// max_attempts (as returned by ClaimJob) so the retry-vs-fail decision
// does not require a second round trip.
func (s *Store) RetryJob(ctx context.Context, id string, attempts, maxAttempts int, errMsg string) error {
	if attempts < maxAttempts {
		backoffSeconds := RetryBackoff(attempts).Seconds()
		_, err := s.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending', scheduled_for = now() + ($2 * INTERVAL '1 second'), error_message = $3, updated_at = now()
			WHERE id = $1
		`, id, backoffSeconds, errMsg)
		if err != nil {
			return fmt.Errorf("retry job %s: %w", id, err)
		}
		return nil
	}
	return s.FailJob(ctx, id, errMsg)
}

// FailJob marks a job permanently failed.
func (s *Store) FailJob(ctx context.Context, id string, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed', error_message = $2, completed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, errMsg)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

// InsertJob inserts a new pending job, used by the enqueue CLI.
func (s *Store) InsertJob(ctx context.Context, id, jobType string, payload []byte, maxAttempts int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, scheduled_for, updated_at)
		VALUES ($1, $2, $3, 'pending', 0, $4, now(), now())
	`, id, jobType, payload, maxAttempts)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", id, err)
	}
	return nil
}

// RetryBackoff computes the exponential backoff duration for a job that has
// just failed its nth attempt: 2^(attempts-1) minutes (1, 2, 4, 8, ...).
// Implemented as real duration arithmetic — the reference implementation
// instead mutates a datetime's minute field directly, which overflows past
// 59; that is a bug, not a behavior to preserve (spec section 9).
func RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	minutes := int64(1) << uint(attempts-1)
	return time.Duration(minutes) * time.Minute
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner, j *Job) error {
	return row.Scan(
		&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.ScheduledFor, &j.StartedAt, &j.CompletedAt, &j.Result, &j.ErrorMessage, &j.UpdatedAt,
	)
}
