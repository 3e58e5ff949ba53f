package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

// fakeStore is an in-memory, mutex-guarded stand-in for *store.Store: a
// slice-backed job table whose ClaimJob is atomic under concurrent callers,
// proving the dispatcher's claim-then-update contract never double-assigns
// a row (spec section 8 property 5) without requiring a live Postgres
// instance to exercise FOR UPDATE SKIP LOCKED.
type fakeStore struct {
	mu   sync.Mutex
	jobs []*store.Job

	completed map[string][]byte
	retried   map[string]string
	failed    map[string]string
}

func newFakeStore(jobs ...*store.Job) *fakeStore {
	return &fakeStore{
		jobs:      jobs,
		completed: make(map[string][]byte),
		retried:   make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (f *fakeStore) ClaimJob(ctx context.Context, jobType string) (*store.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, j := range f.jobs {
		if string(j.Type) != jobType {
			continue
		}
		if j.Status != store.JobPending {
			continue
		}
		if j.ScheduledFor.After(now) {
			continue
		}
		j.Status = store.JobProcessing
		j.Attempts++
		clone := *j
		return &clone, nil
	}
	return nil, store.ErrNoJob
}

func (f *fakeStore) CompleteJob(ctx context.Context, id string, result []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[id] = result
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = store.JobCompleted
		}
	}
	return nil
}

func (f *fakeStore) RetryJob(ctx context.Context, id string, attempts, maxAttempts int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID != id {
			continue
		}
		if attempts < maxAttempts {
			j.Status = store.JobPending
			j.ScheduledFor = time.Now().Add(store.RetryBackoff(attempts))
			f.retried[id] = errMsg
		} else {
			j.Status = store.JobFailed
			f.failed[id] = errMsg
		}
	}
	return nil
}

func (f *fakeStore) FailJob(ctx context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = errMsg
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = store.JobFailed
		}
	}
	return nil
}
