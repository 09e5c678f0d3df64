package sink

import (
	"context"
	"database/sql"
	"fmt"

	"reporting-sync/internal/core/domain"
)

// SQLRunRepository persists sync invocation history in the sink
// database. It works against both the sqlite and postgres sinks; the
// placeholder style is picked by driver.
type SQLRunRepository struct {
	db          *sql.DB
	placeholder func(int) string
}

// NewSQLiteRunRepository stores run history alongside the SQLite sink.
func NewSQLiteRunRepository(s *SQLiteSink) (*SQLRunRepository, error) {
	r := &SQLRunRepository{
		db:          s.DB(),
		placeholder: func(int) string { return "?" },
	}

	schema := `
CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    dataset_id TEXT NOT NULL,
    window_start INTEGER NOT NULL,
    window_end INTEGER NOT NULL,
    status TEXT NOT NULL,
    windows_committed INTEGER NOT NULL DEFAULT 0,
    rows_emitted INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_dataset ON sync_runs(dataset_id, started_at);
`
	if _, err := r.db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create sync_runs table: %w", err)
	}
	return r, nil
}

// NewPostgresRunRepository stores run history alongside the Postgres
// sink. The sync_runs table is created by the sink's migrations.
func NewPostgresRunRepository(s *PostgresSink) *SQLRunRepository {
	return &SQLRunRepository{
		db:          s.DB(),
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	}
}

// Save inserts or updates a run record. Runs are written once when the
// invocation starts and again when it finishes.
func (r *SQLRunRepository) Save(ctx context.Context, run domain.SyncRun) error {
	p := r.placeholder
	query := fmt.Sprintf(`
INSERT INTO sync_runs (id, dataset_id, window_start, window_end, status, windows_committed, rows_emitted, error, started_at, finished_at)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
ON CONFLICT (id) DO UPDATE SET
    status = excluded.status,
    window_start = excluded.window_start,
    window_end = excluded.window_end,
    windows_committed = excluded.windows_committed,
    rows_emitted = excluded.rows_emitted,
    error = excluded.error,
    finished_at = excluded.finished_at`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9), p(10))

	var errMsg any
	if run.Error != "" {
		errMsg = run.Error
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.DatasetID, run.WindowStart, run.WindowEnd, string(run.Status),
		run.WindowsCommitted, run.RowsEmitted, errMsg, run.StartedAt, run.FinishedAt)
	return err
}

// ListByDataset returns the most recent runs for a dataset, newest first.
func (r *SQLRunRepository) ListByDataset(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error) {
	p := r.placeholder
	query := fmt.Sprintf(`
SELECT id, dataset_id, window_start, window_end, status, windows_committed, rows_emitted, COALESCE(error, ''), started_at, finished_at
FROM sync_runs WHERE dataset_id = %s ORDER BY started_at DESC LIMIT %s`, p(1), p(2))

	rows, err := r.db.QueryContext(ctx, query, datasetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		var run domain.SyncRun
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.DatasetID, &run.WindowStart, &run.WindowEnd, &status,
			&run.WindowsCommitted, &run.RowsEmitted, &run.Error, &run.StartedAt, &finished); err != nil {
			return nil, err
		}
		run.Status = domain.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
