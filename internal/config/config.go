// Package config loads the worker processes' environment-derived settings:
// the database DSN, connection pool sizing, poll cadence, and retry policy
// defaults. Nothing here is global mutable state — callers construct a
// Config once in main() and thread it explicitly into the store and worker
// runtime (spec's "process-wide pool state" redesign note).
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Config holds everything a worker process needs to connect to Postgres and
// run its poll loop.
type Config struct {
	DatabaseURL       string
	Schema            string
	DBPoolMin         int32
	DBPoolMax         int32
	DBConnTimeout     time.Duration
	DBSSLMode         string
	PollInterval      time.Duration
	WorkerMaxAttempts int
}

// Environ is the subset of os.Environ's lookup behavior Config needs,
// satisfied by os.LookupEnv in production and a plain map in tests.
type Environ func(key string) (string, bool)

const (
	defaultDBPoolMin         = 1
	defaultDBPoolMax         = 5
	defaultDBConnTimeout     = 5 * time.Second
	defaultPollInterval      = 5 * time.Second
	defaultWorkerMaxAttempts = 5
)

// Load reads and validates configuration from env, returning a fatal
// *ConfigError on anything that should abort startup (spec section 7:
// "Configuration... fatal at startup").
func Load(env Environ) (*Config, error) {
	dsn, ok := env("DATABASE_URL")
	if !ok || dsn == "" {
		return nil, &ConfigError{Reason: "DATABASE_URL is required"}
	}

	dsn, schema, err := extractSchema(dsn)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid DATABASE_URL: %v", err)}
	}

	poolMin, err := envInt32(env, "DB_POOL_MIN", defaultDBPoolMin)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	poolMax, err := envInt32(env, "DB_POOL_MAX", defaultDBPoolMax)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	if poolMin > poolMax {
		return nil, &ConfigError{Reason: fmt.Sprintf("DB_POOL_MIN (%d) must be <= DB_POOL_MAX (%d)", poolMin, poolMax)}
	}

	connTimeout, err := envDuration(env, "DB_CONN_TIMEOUT", defaultDBConnTimeout)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	pollInterval, err := envDuration(env, "POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	maxAttempts, err := envInt(env, "WORKER_MAX_ATTEMPTS", defaultWorkerMaxAttempts)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	sslMode, _ := env("DB_SSL_MODE")

	return &Config{
		DatabaseURL:       dsn,
		Schema:            schema,
		DBPoolMin:         poolMin,
		DBPoolMax:         poolMax,
		DBConnTimeout:     connTimeout,
		DBSSLMode:         sslMode,
		PollInterval:      pollInterval,
		WorkerMaxAttempts: maxAttempts,
	}, nil
}

// ConfigError marks a fatal startup configuration problem, distinct from
// the transient/business errors a running worker may hit mid-job.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

// extractSchema strips a recognized "schema" query parameter from dsn and
// returns the cleaned DSN plus the schema name, so the caller can translate
// it into a connection-time search_path directive instead of a DSN option
// (see DESIGN.md for why pgx needs a hook here rather than a DSN option).
func extractSchema(dsn string) (cleaned, schema string, err error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", err
	}
	q := u.Query()
	schema = q.Get("schema")
	q.Del("schema")
	u.RawQuery = q.Encode()
	return u.String(), schema, nil
}

func envInt32(env Environ, key string, def int32) (int32, error) {
	v, ok := env(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return int32(n), nil
}

func envInt(env Environ, key string, def int) (int, error) {
	v, ok := env(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func envDuration(env Environ, key string, def time.Duration) (time.Duration, error) {
	v, ok := env(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
