package store

import (
	"strings"
	"testing"
)

// TestClaimSelectSQLShape asserts the claim query's safety-critical clauses
// are present without requiring a live Postgres instance: the WHERE clause
// enforcing eligibility, the deterministic ORDER BY, the single-row LIMIT,
// and FOR UPDATE SKIP LOCKED — the clause that makes concurrent claiming
// safe (spec section 8 property 5).
func TestClaimSelectSQLShape(t *testing.T) {
	must := []string{
		"WHERE type = $1 AND status = 'pending' AND scheduled_for <= now()",
		"ORDER BY scheduled_for ASC",
		"LIMIT 1",
		"FOR UPDATE SKIP LOCKED",
	}
	for _, clause := range must {
		if !strings.Contains(claimSelectSQL, clause) {
			t.Errorf("claimSelectSQL missing required clause %q", clause)
		}
	}
}
