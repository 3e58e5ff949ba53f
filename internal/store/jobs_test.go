package store

import (
	"testing"
	"time"
)

func TestRetryBackoffDoublesEachAttempt(t *testing.T) {
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 1 * time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 16 * time.Minute},
	}
	for _, c := range cases {
		if got := RetryBackoff(c.attempts); got != c.want {
			t.Errorf("RetryBackoff(%d) = %v, want %v", c.attempts, got, c.want)
		}
	}
}

func TestRetryBackoffNeverOverflowsPastAnHourBoundary(t *testing.T) {
	// The reference implementation incremented a datetime's minute field
	// directly, which wraps past 59; real duration arithmetic has no such
	// boundary.
	got := RetryBackoff(7) // 2^6 = 64 minutes
	if got != 64*time.Minute {
		t.Errorf("RetryBackoff(7) = %v, want 64m (no wraparound at 60)", got)
	}
}

func TestRetryBackoffClampsBelowOne(t *testing.T) {
	if got := RetryBackoff(0); got != 1*time.Minute {
		t.Errorf("RetryBackoff(0) = %v, want 1m (clamped)", got)
	}
}
