package main

import (
	"fmt"
	"log"
	"os"

	"reporting-sync/internal/clients/reporting"
	"reporting-sync/internal/config"
	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
	"reporting-sync/internal/core/usecases"
	"reporting-sync/internal/shell/decoder"
	"reporting-sync/internal/shell/messaging"
	"reporting-sync/internal/shell/runner"
	"reporting-sync/internal/shell/sink"
	"reporting-sync/internal/shell/storage"
)

// dataStore is the sink side of a database connection: row upserts,
// cursor persistence, and the run history repository share one handle.
type dataStore struct {
	sink    ports.Sink
	cursors ports.CursorStore
	runs    ports.RunRepository
	close   func() error
}

func newDataStore(cfg config.DatabaseConfig) (*dataStore, error) {
	switch cfg.Type {
	case "postgres":
		pg, err := sink.NewPostgresSink(cfg.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres sink: %w", err)
		}
		return &dataStore{
			sink:    pg,
			cursors: pg,
			runs:    sink.NewPostgresRunRepository(pg),
			close:   pg.Close,
		}, nil
	case "sqlite":
		sl, err := sink.NewSQLiteSink(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite sink: %w", err)
		}
		runs, err := sink.NewSQLiteRunRepository(sl)
		if err != nil {
			sl.Close()
			return nil, fmt.Errorf("failed to initialize run repository: %w", err)
		}
		return &dataStore{
			sink:    sl,
			cursors: sl,
			runs:    runs,
			close:   sl.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func newReportingClient(cfg config.ReportingConfig) *reporting.Client {
	return reporting.NewClient(cfg.BaseURL, cfg.AccessToken, cfg.AppID, cfg.ClientID, cfg.APIVersion)
}

func datasetSpec(cfg *config.Config) usecases.DatasetSpec {
	return usecases.DatasetSpec{
		DatasetID:     cfg.Dataset.ID,
		AttributeIDs:  cfg.Dataset.AttributeIDs,
		WindowSeconds: cfg.Dataset.WindowSeconds,
		Poll: domain.PollConfig{
			Interval:          cfg.Poll.Interval,
			MaxInterval:       cfg.Poll.MaxInterval,
			BackoffMultiplier: cfg.Poll.BackoffMultiplier,
			MaxAttempts:       cfg.Poll.MaxAttempts,
			Timeout:           cfg.Poll.Timeout,
		},
	}
}

// newRunner assembles the full sync pipeline for the configured
// dataset. The returned cleanup closes the optional Kafka producer and
// Redis client; the data store is closed by the caller.
func newRunner(cfg *config.Config, store *dataStore) (*runner.Runner, func(), error) {
	client := newReportingClient(cfg.Reporting)
	cursors := usecases.NewCursorManager(store.cursors, cfg.Dataset.InitialStartTime)
	service := usecases.NewSyncService(client, store.sink, cursors, decoder.Decode)

	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var notifier runner.SyncCompletionNotifier
	if cfg.Kafka.Enabled {
		producer, err := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := producer.Close(); err != nil {
				log.Printf("Error closing kafka producer: %v", err)
			}
		})
		notifier = runner.NewKafkaSyncNotifier(producer)
		log.Printf("Kafka notifications enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	var locks runner.DatasetLockManager = storage.NewMemoryLockManager()
	if cfg.Redis.Enabled {
		redisClient, err := storage.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize redis client: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
		})

		hostname, _ := os.Hostname()
		instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())
		locks = storage.NewRedisLockManager(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.LockTTL, instanceID)
		log.Printf("Redis dataset lock enabled (address=%s)", cfg.Redis.Address)
	}

	return runner.NewRunner(service, datasetSpec(cfg), store.runs, notifier, locks), cleanup, nil
}
