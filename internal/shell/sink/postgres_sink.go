package sink

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"reporting-sync/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgresSink stores all datasets in a shared sync_rows table keyed
// by (dataset_id, row_key), with the schema managed by embedded
// migrations. It implements ports.Sink and ports.CursorStore.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(connString string) (*PostgresSink, error) {
	log.Printf("[DEBUG] PostgresSink - connecting to database")

	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresSink{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[DEBUG] PostgresSink - database initialized successfully")
	return s, nil
}

func (s *PostgresSink) migrate() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Upsert writes one row keyed by (dataset, row key). Replays of the
// same window rewrite existing keys.
func (s *PostgresSink) Upsert(ctx context.Context, table string, record map[string]any) error {
	key, data, err := rowKey(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sync_rows (dataset_id, row_key, data, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (dataset_id, row_key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		table, key, string(data))
	return err
}

func (s *PostgresSink) Load(ctx context.Context, datasetID string) (*domain.Cursor, error) {
	var next int64
	err := s.db.QueryRowContext(ctx,
		`SELECT next_window_start FROM sync_cursors WHERE dataset_id = $1`, datasetID).Scan(&next)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Cursor{DatasetID: datasetID, NextWindowStart: next}, nil
}

func (s *PostgresSink) Save(ctx context.Context, cursor domain.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sync_cursors (dataset_id, next_window_start, updated_at) VALUES ($1, $2, now())
ON CONFLICT (dataset_id) DO UPDATE SET next_window_start = EXCLUDED.next_window_start, updated_at = now()`,
		cursor.DatasetID, cursor.NextWindowStart)
	return err
}

// DB exposes the underlying handle so the run repository can share it.
func (s *PostgresSink) DB() *sql.DB {
	return s.db
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
