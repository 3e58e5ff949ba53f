package dedup

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

type fakeStore struct {
	articles        []store.Article
	simhashes       map[string]string
	newClusters     map[string]string // articleID -> clusterID
	existingClaims  map[string]string // articleID -> clusterID
}

func newFakeStore(articles ...store.Article) *fakeStore {
	return &fakeStore{
		articles:       articles,
		simhashes:      make(map[string]string),
		newClusters:    make(map[string]string),
		existingClaims: make(map[string]string),
	}
}

func (f *fakeStore) FetchArticlesForDedup(ctx context.Context, ids []string) ([]store.Article, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []store.Article
	for _, a := range f.articles {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) SetArticleSimhash(ctx context.Context, articleID, simhash string) error {
	f.simhashes[articleID] = simhash
	return nil
}

func (f *fakeStore) AssignToNewCluster(ctx context.Context, clusterID, articleID string) error {
	f.newClusters[articleID] = clusterID
	return nil
}

func (f *fakeStore) AssignToExistingCluster(ctx context.Context, clusterID, articleID string) error {
	f.existingClaims[articleID] = clusterID
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func jobFor(t *testing.T, articleIDs []string) store.Job {
	t.Helper()
	payload, err := json.Marshal(queue.DeduplicationPayload{ArticleIDs: articleIDs})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return store.Job{ID: "job-1", Type: store.JobDeduplication, Payload: payload, MaxAttempts: 3}
}

func TestProcessTwoDuplicatesShareOneCluster(t *testing.T) {
	now := time.Now()
	a1 := store.Article{ID: "a1", Title: "Fed raises rates 0.25%", TsPublished: now}
	a2 := store.Article{ID: "a2", Title: "Fed raises rates 0.25%", TsPublished: now.Add(-1 * time.Hour)}
	fs := newFakeStore(a1, a2)

	var createdClusterIDs []string
	NewClusterID = func() string {
		id := "cluster-fixed"
		createdClusterIDs = append(createdClusterIDs, id)
		return id
	}
	defer func() { NewClusterID = originalNewClusterID }()

	p := &Processor{Store: fs, Logger: discardLogger()}
	res, err := p.Process(context.Background(), jobFor(t, []string{"a1", "a2"}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	result := res.(queue.DeduplicationResult)
	if result.ClustersCreated != 1 {
		t.Errorf("ClustersCreated = %d, want 1", result.ClustersCreated)
	}
	// ArticlesClustered counts only articles attached to an existing cluster
	// (a1 creates a cluster, a2 joins it) — not every processed article.
	if result.ArticlesClustered != 1 {
		t.Errorf("ArticlesClustered = %d, want 1", result.ArticlesClustered)
	}

	clusterID, ok := fs.newClusters["a1"]
	if !ok {
		t.Fatalf("expected a1 assigned to a new cluster")
	}
	if got, ok := fs.existingClaims["a2"]; !ok || got != clusterID {
		t.Errorf("expected a2 assigned to a1's cluster %s, got %v (existing claim %v)", clusterID, ok, got)
	}
}

func TestProcessUnrelatedArticlesGetSeparateClusters(t *testing.T) {
	now := time.Now()
	a1 := store.Article{ID: "a1", Title: "Fed raises interest rates amid inflation concerns", TsPublished: now}
	a2 := store.Article{ID: "a2", Title: "Local zoo welcomes newborn giraffe calf this weekend", TsPublished: now}
	fs := newFakeStore(a1, a2)

	p := &Processor{Store: fs, Logger: discardLogger()}
	res, err := p.Process(context.Background(), jobFor(t, []string{"a1", "a2"}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	result := res.(queue.DeduplicationResult)
	if result.ClustersCreated != 2 {
		t.Errorf("ClustersCreated = %d, want 2", result.ClustersCreated)
	}
}

func TestProcessEmptyPayloadFails(t *testing.T) {
	fs := newFakeStore()
	p := &Processor{Store: fs, Logger: discardLogger()}
	_, err := p.Process(context.Background(), jobFor(t, nil))
	if err == nil {
		t.Fatal("expected error for empty article_ids")
	}
}

func TestProcessPersistsSimhashForEveryArticle(t *testing.T) {
	now := time.Now()
	a1 := store.Article{ID: "a1", Title: "Some headline here", TsPublished: now}
	fs := newFakeStore(a1)

	p := &Processor{Store: fs, Logger: discardLogger()}
	if _, err := p.Process(context.Background(), jobFor(t, []string{"a1"})); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	sh, ok := fs.simhashes["a1"]
	if !ok || len(sh) != 16 {
		t.Errorf("expected 16-char simhash persisted for a1, got %q (ok=%v)", sh, ok)
	}
}

// originalNewClusterID captures the production default before any test
// overrides it, so overriding tests can restore it afterward.
var originalNewClusterID = NewClusterID
