package lsh

import (
	"testing"

	"github.com/tooitw/morning-pulse-nlp/internal/fingerprint"
)

func TestQueryFindsNearDuplicate(t *testing.T) {
	idx := New()

	base := fingerprint.ComputeMinHash("fed raises interest rates by a quarter point to curb rising inflation pressures across markets")
	near := fingerprint.ComputeMinHash("fed raises interest rates by a quarter point to curb rising inflation pressures across markets today")

	idx.Insert("article-a", base)

	matches := idx.Query(near)
	if !containsKey(matches, "article-a") {
		t.Errorf("expected article-a among matches, got %v", matches)
	}
}

func TestQueryExcludesUnrelated(t *testing.T) {
	idx := New()

	a := fingerprint.ComputeMinHash("Fed raises interest rates amid inflation concerns")
	b := fingerprint.ComputeMinHash("Local zoo welcomes newborn giraffe calf this weekend")

	idx.Insert("article-a", a)

	matches := idx.Query(b)
	if containsKey(matches, "article-a") {
		t.Errorf("expected article-a NOT to match unrelated text, got %v", matches)
	}
}

func TestQueryEmptyIndexReturnsNothing(t *testing.T) {
	idx := New()
	mh := fingerprint.ComputeMinHash("anything at all")
	if matches := idx.Query(mh); len(matches) != 0 {
		t.Errorf("expected no matches in empty index, got %v", matches)
	}
}

func TestInsertThenQuerySelfAlwaysMatches(t *testing.T) {
	idx := New()
	mh := fingerprint.ComputeMinHash("a fairly ordinary sentence about markets and earnings today")
	idx.Insert("self", mh)

	matches := idx.Query(mh)
	if !containsKey(matches, "self") {
		t.Errorf("expected a key to match its own signature, got %v", matches)
	}
}

func TestQueryDeduplicatesAcrossBands(t *testing.T) {
	idx := New()
	mh := fingerprint.ComputeMinHash("a fairly ordinary sentence about markets and earnings today")
	idx.Insert("only-one", mh)

	matches := idx.Query(mh)
	count := 0
	for _, k := range matches {
		if k == "only-one" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected key to appear exactly once across bands, got %d times", count)
	}
}

func containsKey(keys []string, target string) bool {
	for _, k := range keys {
		if k == target {
			return true
		}
	}
	return false
}
