// Package dedup implements the deduplication job processor: for each
// article in a batch, compute its fingerprints, query a job-local LSH
// index for near-duplicates, and assign it to an existing or freshly
// created cluster.
package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tooitw/morning-pulse-nlp/internal/fingerprint"
	"github.com/tooitw/morning-pulse-nlp/internal/logger"
	"github.com/tooitw/morning-pulse-nlp/internal/lsh"
	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

// Store is the subset of *store.Store the deduplication processor needs.
type Store interface {
	FetchArticlesForDedup(ctx context.Context, ids []string) ([]store.Article, error)
	SetArticleSimhash(ctx context.Context, articleID, simhash string) error
	AssignToNewCluster(ctx context.Context, clusterID, articleID string) error
	AssignToExistingCluster(ctx context.Context, clusterID, articleID string) error
}

// NewClusterID is overridable in tests so cluster assignment is
// deterministic to assert against; production uses a fresh UUID per spec
// section 4.6 step 2e.
var NewClusterID = func() string { return uuid.NewString() }

// defaultPollInterval is used when Processor.Interval is left unset.
const defaultPollInterval = 5 * time.Second

// Processor implements queue.JobProcessor for "deduplication" jobs.
type Processor struct {
	Store    Store
	Logger   *slog.Logger
	Interval time.Duration
}

var _ queue.JobProcessor = (*Processor)(nil)

func (p *Processor) JobType() string { return string(store.JobDeduplication) }

func (p *Processor) PollInterval() time.Duration {
	if p.Interval <= 0 {
		return defaultPollInterval
	}
	return p.Interval
}

// Process runs the full deduplication algorithm for one job's article
// batch (spec section 4.6). Per-article failures fail the whole job,
// because a partially-applied batch leaves the job-local LSH index (and
// therefore cluster assignment) inconsistent (spec section 7).
func (p *Processor) Process(ctx context.Context, job store.Job) (any, error) {
	var payload queue.DeduplicationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal deduplication payload: %w", err)
	}
	if len(payload.ArticleIDs) == 0 {
		return nil, fmt.Errorf("deduplication payload has no article_ids")
	}

	articles, err := p.Store.FetchArticlesForDedup(ctx, payload.ArticleIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	index := lsh.New()
	result := queue.DeduplicationResult{ArticlesProcessed: len(articles)}
	jobLog := logger.WithJob(p.Logger, job.ID, string(job.Type))

	for _, article := range articles {
		log := logger.WithArticle(jobLog, article.ID)

		text := composeText(article)
		sh := fingerprint.SimHash(text)
		mh := fingerprint.ComputeMinHash(text)

		if err := p.Store.SetArticleSimhash(ctx, article.ID, sh); err != nil {
			return nil, fmt.Errorf("persist simhash for %s: %w", article.ID, err)
		}

		matches := index.Query(mh)
		if len(matches) > 0 {
			clusterID := matches[0]
			if err := p.Store.AssignToExistingCluster(ctx, clusterID, article.ID); err != nil {
				return nil, fmt.Errorf("assign %s to cluster %s: %w", article.ID, clusterID, err)
			}
			result.ArticlesClustered++
			logger.WithCluster(log, clusterID).Info("assigned to existing cluster")
		} else {
			clusterID := NewClusterID()
			if err := p.Store.AssignToNewCluster(ctx, clusterID, article.ID); err != nil {
				return nil, fmt.Errorf("create cluster for %s: %w", article.ID, err)
			}
			index.Insert(clusterID, mh)
			result.ClustersCreated++
			logger.WithCluster(log, clusterID).Info("created new cluster")
		}
	}

	return result, nil
}

// composeText builds the text deduplication hashes over: title plus
// summary_raw, per spec section 4.6 step 2a.
func composeText(a store.Article) string {
	body := ""
	if a.SummaryRaw != nil {
		body = *a.SummaryRaw
	}
	return strings.TrimSpace(a.Title + " " + body)
}
