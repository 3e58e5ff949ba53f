// Package store is the Postgres access layer: connection pool lifecycle,
// schema migrations, and the article/cluster/job queries the dispatcher and
// domain workers need. It knows nothing about job payload/result semantics
// — those are decoded one layer up, in internal/queue — mirroring the
// teacher's separation between a generic row store and task semantics.
package store

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooitw/morning-pulse-nlp/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a pgxpool.Pool with the queries this system needs. It is safe
// for concurrent use by multiple goroutines, which is how the worker
// runtime shares one Store across a poll loop's lifetime.
type Store struct {
	pool *pgxpool.Pool
}

// Open builds a connection pool from cfg, installs the schema search-path
// hook when cfg.Schema is set, runs pending migrations, and verifies
// connectivity with a ping.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	dsn := cfg.DatabaseURL
	if cfg.DBSSLMode != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", cfg.DBSSLMode)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MinConns = cfg.DBPoolMin
	poolCfg.MaxConns = cfg.DBPoolMax
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnTimeout

	if cfg.Schema != "" {
		schema := cfg.Schema
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return s, nil
}

// Close releases the underlying pool. Safe to call once.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pgxpool.Pool for callers (migration tooling,
// tests) that need direct access.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", f).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", f); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}
