// Package summarizer implements the summarization job processor: generate
// and persist a numerically-verified two-sentence summary for each article
// in a batch.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tooitw/morning-pulse-nlp/internal/logger"
	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
	"github.com/tooitw/morning-pulse-nlp/internal/summary"
)

// Store is the subset of *store.Store the summarization processor needs.
type Store interface {
	FetchArticlesForSummary(ctx context.Context, ids []string) ([]store.Article, error)
	SetArticleSummary(ctx context.Context, articleID, summaryText string) error
}

// defaultPollInterval is used when Processor.Interval is left unset.
const defaultPollInterval = 5 * time.Second

// Processor implements queue.JobProcessor for "summarization" jobs.
type Processor struct {
	Store    Store
	Logger   *slog.Logger
	Interval time.Duration
}

var _ queue.JobProcessor = (*Processor)(nil)

func (p *Processor) JobType() string { return string(store.JobSummarization) }

func (p *Processor) PollInterval() time.Duration {
	if p.Interval <= 0 {
		return defaultPollInterval
	}
	return p.Interval
}

// Process generates a summary for each article in the batch. Per-article
// failures are counted in the result but do not fail the whole job (spec
// section 7) — summarization has no shared mutable state analogous to the
// dedup job's LSH index, so one article's trouble can't corrupt another's.
func (p *Processor) Process(ctx context.Context, job store.Job) (any, error) {
	var payload queue.SummarizationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal summarization payload: %w", err)
	}
	if len(payload.ArticleIDs) == 0 {
		return nil, fmt.Errorf("summarization payload has no article_ids")
	}

	articles, err := p.Store.FetchArticlesForSummary(ctx, payload.ArticleIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	result := queue.SummarizationResult{ArticlesProcessed: len(articles)}
	jobLog := logger.WithJob(p.Logger, job.ID, string(job.Type))

	for _, article := range articles {
		log := logger.WithArticle(jobLog, article.ID)

		res := summary.Generate(article.Title, article.Content, article.SummaryRaw)
		if err := p.Store.SetArticleSummary(ctx, article.ID, res.Summary); err != nil {
			log.Error("failed to persist summary", "error", err)
			result.SummariesFailed++
			continue
		}

		result.SummariesGenerated++
		if res.Verified {
			result.SummariesVerified++
		} else {
			log.Warn("summary failed numeric verification, fallback emitted")
		}
	}

	return result, nil
}
