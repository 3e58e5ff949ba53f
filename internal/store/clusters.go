package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AssignToNewCluster creates a fresh Cluster row with the given id, assigns
// articleID to it, and elects articleID as the initial representative — all
// in one transaction (spec section 9's "one transaction per membership
// change" redesign).
func (s *Store) AssignToNewCluster(ctx context.Context, clusterID, articleID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin new-cluster tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO clusters (id, rep_article_id, created_at, updated_at) VALUES ($1, $2, now(), now())`, clusterID, articleID); err != nil {
		return fmt.Errorf("insert cluster %s: %w", clusterID, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE articles SET cluster_id = $2, updated_at = now() WHERE id = $1`, articleID, clusterID); err != nil {
		return fmt.Errorf("assign article %s to new cluster: %w", articleID, err)
	}
	return tx.Commit(ctx)
}

// AssignToExistingCluster attaches articleID to an already-existing
// cluster and recomputes the representative, both in one transaction.
func (s *Store) AssignToExistingCluster(ctx context.Context, clusterID, articleID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cluster-assign tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE articles SET cluster_id = $2, updated_at = now() WHERE id = $1`, articleID, clusterID); err != nil {
		return fmt.Errorf("assign article %s to cluster %s: %w", articleID, clusterID, err)
	}
	if err := recomputeRepresentative(ctx, tx, clusterID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// recomputeRepresentative elects the cluster member with the greatest
// content length, breaking ties by source trust score then recency (spec
// section 4.6's representative-election rule), and writes it as
// rep_article_id. Must run inside the caller's membership-changing
// transaction.
func recomputeRepresentative(ctx context.Context, tx pgx.Tx, clusterID string) error {
	var repArticleID string
	err := tx.QueryRow(ctx, `
		SELECT a.id
		FROM articles a
		LEFT JOIN sources src ON src.id = a.source_id
		WHERE a.cluster_id = $1
		ORDER BY LENGTH(COALESCE(a.content, a.summary_raw, a.title, '')) DESC,
		         COALESCE(src.trust_score, 0) DESC,
		         a.ts_published DESC
		LIMIT 1
	`, clusterID).Scan(&repArticleID)
	if err != nil {
		return fmt.Errorf("elect representative for cluster %s: %w", clusterID, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE clusters SET rep_article_id = $2, updated_at = now() WHERE id = $1`, clusterID, repArticleID); err != nil {
		return fmt.Errorf("set representative for cluster %s: %w", clusterID, err)
	}
	return nil
}

// GetCluster fetches one cluster by id.
func (s *Store) GetCluster(ctx context.Context, id string) (*Cluster, error) {
	var c Cluster
	err := s.pool.QueryRow(ctx, `SELECT id, rep_article_id, created_at, updated_at FROM clusters WHERE id = $1`, id).
		Scan(&c.ID, &c.RepArticleID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get cluster %s: %w", id, err)
	}
	return &c, nil
}
