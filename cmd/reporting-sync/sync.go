package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reporting-sync/internal/config"
	"reporting-sync/internal/core/domain"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync invocation for the configured dataset and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncOnce()
		},
	}
}

func runSyncOnce() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.Printf("Starting one-shot sync for dataset %s (window=%ds)", cfg.Dataset.ID, cfg.Dataset.WindowSeconds)

	store, err := newDataStore(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Printf("Error closing data store: %v", err)
		}
	}()

	r, cleanup, err := newRunner(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := r.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			log.Printf("Another invocation holds the dataset lock, nothing to do")
			return nil
		}
		return err
	}

	log.Printf("Sync %s finished: status=%s windows=%d rows=%d range=[%d, %d)",
		run.ID, run.Status, run.WindowsCommitted, run.RowsEmitted, run.WindowStart, run.WindowEnd)
	return nil
}
