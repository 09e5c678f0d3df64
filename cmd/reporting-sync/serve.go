package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"reporting-sync/internal/config"
	synchttp "reporting-sync/internal/shell/http"
	"reporting-sync/internal/shell/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon: scheduled syncs plus the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log.Printf("Starting reporting-sync daemon")
	log.Printf("  Dataset: %s (window=%ds)", cfg.Dataset.ID, cfg.Dataset.WindowSeconds)
	log.Printf("  Schedule: %s", cfg.Schedule)
	log.Printf("  Database: type=%s", cfg.Database.Type)
	log.Printf("  Kafka: enabled=%t", cfg.Kafka.Enabled)
	log.Printf("  Redis: enabled=%t", cfg.Redis.Enabled)
	log.Printf("  Metrics: enabled=%t, port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port)

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

	// Scheduled syncs
	cronScheduler := scheduler.NewCronScheduler()
	if err := cronScheduler.AddRunner(cfg.Schedule, r); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", cfg.Schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cronScheduler.Start(ctx)

	// Admin API
	handler := synchttp.NewSyncHandler(store.cursors, store.runs, r)
	router := synchttp.SetupRoutes(handler)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting admin API on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Admin API server error: %v", err)
		}
	}()

	// Metrics server
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())

		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: metricsMux,
		}

		go func() {
			log.Printf("Starting metrics server on %s%s", metricsServer.Addr, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	cronScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Admin API server forced to shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server forced to shutdown: %v", err)
		}
	}

	log.Println("Daemon exited")
	return nil
}
