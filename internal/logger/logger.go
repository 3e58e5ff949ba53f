// Package logger provides the process-wide structured logger: a
// human-readable text handler for interactive/dev use, a JSON handler for
// production, chosen by whether stderr is a terminal — the same dev/prod
// split the reference Python implementation makes with structlog, realized
// with stdlib log/slog.
package logger

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

var Log *slog.Logger

// Init builds the process-wide logger at the given level ("debug", "info",
// "warn", "error") and installs it as slog's default.
func Init(level string) {
	Log = New(level)
	slog.SetDefault(Log)
}

// New constructs a logger without mutating package state, for tests and
// callers that want an isolated instance.
func New(level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithJob returns a child logger with job correlation fields bound, the way
// a worker scopes every log line inside a claimed job.
func WithJob(l *slog.Logger, jobID, jobType string) *slog.Logger {
	return l.With(slog.String("job_id", jobID), slog.String("job_type", jobType))
}

// WithArticle adds an article_id field to an already job-scoped logger.
func WithArticle(l *slog.Logger, articleID string) *slog.Logger {
	return l.With(slog.String("article_id", articleID))
}

// WithCluster adds a cluster_id field to an already job-scoped logger.
func WithCluster(l *slog.Logger, clusterID string) *slog.Logger {
	return l.With(slog.String("cluster_id", clusterID))
}
