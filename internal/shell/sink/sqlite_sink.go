package sink

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"reporting-sync/internal/core/domain"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLiteSink is the default destination: one table per dataset holding
// the upserted rows as JSON, plus the sync_cursors watermark table.
// It implements ports.Sink and ports.CursorStore.
type SQLiteSink struct {
	db     *sql.DB
	tables map[string]bool // datasets whose row table already exists
}

func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	log.Printf("[DEBUG] SQLiteSink - opening database: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteSink{db: db, tables: make(map[string]bool)}
	if err := s.initSchema(); err != nil {
		return nil, err
	}

	log.Printf("[DEBUG] SQLiteSink - database initialized successfully")
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS sync_cursors (
    dataset_id TEXT PRIMARY KEY,
    next_window_start INTEGER NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := s.db.Exec(schema)
	return err
}

// ensureRowTable creates the per-dataset row table on first use. The
// dataset id doubles as the table name and is validated against a
// strict identifier pattern since it is interpolated into DDL.
func (s *SQLiteSink) ensureRowTable(table string) error {
	if s.tables[table] {
		return nil
	}
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDataset, table)
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %q (
    row_key TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, table)

	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create row table %s: %w", table, err)
	}
	s.tables[table] = true
	return nil
}

// Upsert writes one row keyed by its "id" column when present, falling
// back to a content hash. Re-delivery of the same logical row rewrites
// the same key, which is what makes whole-window replays safe.
func (s *SQLiteSink) Upsert(ctx context.Context, table string, record map[string]any) error {
	if err := s.ensureRowTable(table); err != nil {
		return err
	}

	key, data, err := rowKey(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %q (row_key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(row_key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`, table)

	_, err = s.db.ExecContext(ctx, query, key, string(data))
	return err
}

// Load returns the cursor for a dataset, or nil when none exists yet.
func (s *SQLiteSink) Load(ctx context.Context, datasetID string) (*domain.Cursor, error) {
	var next int64
	err := s.db.QueryRowContext(ctx,
		`SELECT next_window_start FROM sync_cursors WHERE dataset_id = ?`, datasetID).Scan(&next)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Cursor{DatasetID: datasetID, NextWindowStart: next}, nil
}

// Save durably persists the watermark before returning.
func (s *SQLiteSink) Save(ctx context.Context, cursor domain.Cursor) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sync_cursors (dataset_id, next_window_start, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(dataset_id) DO UPDATE SET next_window_start = excluded.next_window_start, updated_at = CURRENT_TIMESTAMP`,
		cursor.DatasetID, cursor.NextWindowStart)
	return err
}

// DB exposes the underlying handle so the run repository can share it.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// rowKey picks the upsert key for a record: the "id" column when the
// dataset exports one, else a hash over the sorted field values. The
// marshaled record is returned alongside to avoid encoding twice.
func rowKey(record map[string]any) (string, []byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	if id, ok := record["id"].(string); ok && id != "" {
		return id, data, nil
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, record[k])
	}
	return hex.EncodeToString(h.Sum(nil)), data, nil
}
