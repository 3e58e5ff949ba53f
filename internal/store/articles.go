package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FetchArticlesForDedup returns the articles among ids published within the
// last 48 hours, newest first (spec section 4.6 step 1). Ids that don't
// exist, or whose article falls outside the window, are simply absent from
// the result — no error (spec section 9's open-question resolution:
// missing payload ids are a silent skip).
func (s *Store) FetchArticlesForDedup(ctx context.Context, ids []string) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, summary_raw, summary_2, simhash, cluster_id, source_id, ts_published, updated_at
		FROM articles
		WHERE id = ANY($1) AND ts_published >= now() - INTERVAL '48 hours'
		ORDER BY ts_published DESC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch articles for dedup: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// FetchArticlesForSummary returns the articles among ids with no time
// filter (spec section 4.4 has none).
func (s *Store) FetchArticlesForSummary(ctx context.Context, ids []string) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, summary_raw, summary_2, simhash, cluster_id, source_id, ts_published, updated_at
		FROM articles
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch articles for summary: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows pgx.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.SummaryRaw, &a.Summary2,
			&a.SimHash, &a.ClusterID, &a.SourceID, &a.TsPublished, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

// SetArticleSimhash persists an article's computed SimHash fingerprint.
// Last-writer-wins: safe to re-run after a crash (spec section 4.7
// idempotence requirement).
func (s *Store) SetArticleSimhash(ctx context.Context, articleID, simhash string) error {
	_, err := s.pool.Exec(ctx, `UPDATE articles SET simhash = $2, updated_at = now() WHERE id = $1`, articleID, simhash)
	if err != nil {
		return fmt.Errorf("set simhash for %s: %w", articleID, err)
	}
	return nil
}

// SetArticleSummary persists the generated summary_2 for an article.
func (s *Store) SetArticleSummary(ctx context.Context, articleID, summary string) error {
	_, err := s.pool.Exec(ctx, `UPDATE articles SET summary_2 = $2, updated_at = now() WHERE id = $1`, articleID, summary)
	if err != nil {
		return fmt.Errorf("set summary for %s: %w", articleID, err)
	}
	return nil
}
