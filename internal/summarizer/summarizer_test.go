package summarizer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

type fakeStore struct {
	articles []store.Article
	saved    map[string]string
}

func newFakeStore(articles ...store.Article) *fakeStore {
	return &fakeStore{articles: articles, saved: make(map[string]string)}
}

func (f *fakeStore) FetchArticlesForSummary(ctx context.Context, ids []string) ([]store.Article, error) {
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

func (f *fakeStore) SetArticleSummary(ctx context.Context, articleID, summaryText string) error {
	f.saved[articleID] = summaryText
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func strPtr(s string) *string { return &s }

func jobFor(t *testing.T, ids []string) store.Job {
	t.Helper()
	payload, err := json.Marshal(queue.SummarizationPayload{ArticleIDs: ids})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return store.Job{ID: "job-1", Type: store.JobSummarization, Payload: payload, MaxAttempts: 3}
}

func TestProcessGeneratesVerifiedSummary(t *testing.T) {
	a := store.Article{
		ID:      "a1",
		Title:   "Apple Stock Rises 5% on Strong Earnings",
		Content: strPtr("Apple Inc reported strong quarterly earnings today, with revenue up 5% compared with last year. Analysts on Wall Street welcomed the results and raised price targets soon after."),
	}
	fs := newFakeStore(a)
	p := &Processor{Store: fs, Logger: discardLogger()}

	res, err := p.Process(context.Background(), jobFor(t, []string{"a1"}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	result := res.(queue.SummarizationResult)
	if result.SummariesGenerated != 1 || result.SummariesVerified != 1 {
		t.Errorf("result = %+v, want 1 generated and 1 verified", result)
	}
	if fs.saved["a1"] == "" {
		t.Error("expected a summary saved for a1")
	}
}

func TestProcessEmptyPayloadFails(t *testing.T) {
	fs := newFakeStore()
	p := &Processor{Store: fs, Logger: discardLogger()}
	if _, err := p.Process(context.Background(), jobFor(t, nil)); err == nil {
		t.Fatal("expected error for empty article_ids")
	}
}

func TestProcessUnverifiedSummaryStillCountsAsGenerated(t *testing.T) {
	a := store.Article{
		ID:         "a2",
		Title:      "Company reports quarterly results today",
		Content:    strPtr("Stock price closed at $5.6 per share today after the earnings call concluded this afternoon. Analysts remain optimistic about future growth prospects for the company."),
		SummaryRaw: strPtr("The company's stock closed higher in regular trading."),
	}
	fs := newFakeStore(a)
	p := &Processor{Store: fs, Logger: discardLogger()}

	res, err := p.Process(context.Background(), jobFor(t, []string{"a2"}))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	result := res.(queue.SummarizationResult)
	if result.SummariesGenerated != 1 || result.SummariesVerified != 0 {
		t.Errorf("result = %+v, want 1 generated, 0 verified", result)
	}
}
