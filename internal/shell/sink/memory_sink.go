package sink

import (
	"context"
	"sync"

	"reporting-sync/internal/core/domain"
)

// MemorySink is an in-memory Sink and CursorStore used by tests. It
// keys records the same way the SQL sinks do and counts upserts per
// key so idempotence properties can be asserted.
type MemorySink struct {
	mu           sync.Mutex
	records      map[string]map[string]map[string]any // table -> key -> record
	upsertCounts map[string]map[string]int            // table -> key -> upserts
	cursors      map[string]domain.Cursor
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		records:      make(map[string]map[string]map[string]any),
		upsertCounts: make(map[string]map[string]int),
		cursors:      make(map[string]domain.Cursor),
	}
}

func (m *MemorySink) Upsert(_ context.Context, table string, record map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, _, err := rowKey(record)
	if err != nil {
		return err
	}

	if m.records[table] == nil {
		m.records[table] = make(map[string]map[string]any)
		m.upsertCounts[table] = make(map[string]int)
	}
	m.records[table][key] = record
	m.upsertCounts[table][key]++
	return nil
}

func (m *MemorySink) Load(_ context.Context, datasetID string) (*domain.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cursor, ok := m.cursors[datasetID]
	if !ok {
		return nil, nil
	}
	return &cursor, nil
}

func (m *MemorySink) Save(_ context.Context, cursor domain.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cursors[cursor.DatasetID] = cursor
	return nil
}

// RowCount returns the number of distinct row keys in a table.
func (m *MemorySink) RowCount(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[table])
}

// UpsertCount returns how many times a key has been upserted.
func (m *MemorySink) UpsertCount(table, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCounts[table][key]
}

// Record returns the latest record stored under a key.
func (m *MemorySink) Record(table, key string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[table][key]
	return record, ok
}
