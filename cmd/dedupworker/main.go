// Command dedupworker runs the deduplication worker's poll loop: claim
// "deduplication" jobs and cluster near-duplicate articles with MinHash
// LSH and SimHash.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tooitw/morning-pulse-nlp/internal/config"
	"github.com/tooitw/morning-pulse-nlp/internal/dedup"
	"github.com/tooitw/morning-pulse-nlp/internal/logger"
	"github.com/tooitw/morning-pulse-nlp/internal/store"
	"github.com/tooitw/morning-pulse-nlp/internal/worker"
)

func main() {
	root := &cobra.Command{
		Use:   "dedupworker",
		Short: "poll the job queue and cluster near-duplicate articles",
		RunE:  run,
	}
	root.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger.Init(logLevel)
	log := logger.Log

	cfg, err := config.Load(config.OSEnviron)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	processor := &dedup.Processor{Store: db, Logger: log, Interval: cfg.PollInterval}
	runtime := &worker.Runtime{Store: db, Processor: processor, Logger: log}

	log.Info("dedupworker started", "poll_interval", processor.PollInterval())
	if err := runtime.Run(ctx); err != nil {
		return fmt.Errorf("worker runtime: %w", err)
	}
	log.Info("dedupworker shut down")
	return nil
}
