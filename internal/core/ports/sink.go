package ports

import (
	"context"

	"reporting-sync/internal/core/domain"
)

// Sink receives decoded rows. Upsert must be idempotent under
// re-delivery of the same logical row: re-running a window after a
// crash before commit must not duplicate rows downstream.
type Sink interface {
	Upsert(ctx context.Context, table string, record map[string]any) error
}

// CursorStore persists the per-dataset watermark. Save must be durable
// before it returns; the next invocation starts from whatever it reads.
type CursorStore interface {
	// Load returns nil (and no error) when no cursor exists yet.
	Load(ctx context.Context, datasetID string) (*domain.Cursor, error)
	Save(ctx context.Context, cursor domain.Cursor) error
}

// RunRepository records sync invocation history.
type RunRepository interface {
	Save(ctx context.Context, run domain.SyncRun) error
	ListByDataset(ctx context.Context, datasetID string, limit int) ([]domain.SyncRun, error)
}
