// Command enqueue inserts a pending deduplication or summarization job for
// one or more article IDs, for operators and backfill scripts driving the
// workers by hand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tooitw/morning-pulse-nlp/internal/config"
	"github.com/tooitw/morning-pulse-nlp/internal/logger"
	"github.com/tooitw/morning-pulse-nlp/internal/queue"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "enqueue",
		Short: "enqueue a deduplication or summarization job",
	}

	root.AddCommand(
		jobCommand("dedup", string(store.JobDeduplication), func(ids []string) (any, error) {
			return queue.DeduplicationPayload{ArticleIDs: ids}, nil
		}),
		jobCommand("summarize", string(store.JobSummarization), func(ids []string) (any, error) {
			return queue.SummarizationPayload{ArticleIDs: ids}, nil
		}),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func jobCommand(use, jobType string, payloadFor func(ids []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <article-id>...",
		Short: fmt.Sprintf("enqueue a %s job for the given article IDs", jobType),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init("info")
			log := logger.Log

			cfg, err := config.Load(config.OSEnviron)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx := context.Background()
			db, err := store.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer db.Close()

			payload, err := payloadFor(args)
			if err != nil {
				return err
			}
			body, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}

			id := uuid.NewString()
			if err := db.InsertJob(ctx, id, jobType, body, cfg.WorkerMaxAttempts); err != nil {
				return fmt.Errorf("insert job: %w", err)
			}

			log.Info("job enqueued", "job_id", id, "job_type", jobType, "article_count", len(args))
			fmt.Println(id)
			return nil
		},
	}
}
