package usecases

import (
	"context"
	"fmt"
	"time"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
)

// CursorManager owns the per-dataset watermark. It proposes bounded
// windows clipped to the current wall clock and commits the watermark
// only after a window has been fully emitted.
type CursorManager struct {
	store        ports.CursorStore
	initialStart int64            // unix seconds; 0 means "24h before first run"
	now          func() time.Time // injectable clock
}

func NewCursorManager(store ports.CursorStore, initialStart int64) *CursorManager {
	return &CursorManager{
		store:        store,
		initialStart: initialStart,
		now:          time.Now,
	}
}

// WithClock overrides the wall clock. Used by tests.
func (m *CursorManager) WithClock(now func() time.Time) *CursorManager {
	m.now = now
	return m
}

// NextWindow reads the persisted watermark (or the initial start time
// when none exists) and proposes the next window. The end is clipped
// so it never extends past now: data past the clock may not exist
// upstream yet. A plan with End <= Start means caught up.
func (m *CursorManager) NextWindow(ctx context.Context, datasetID string, windowSeconds int64) (domain.WindowPlan, error) {
	cursor, err := m.store.Load(ctx, datasetID)
	if err != nil {
		return domain.WindowPlan{}, fmt.Errorf("failed to load cursor for %s: %w", datasetID, err)
	}

	var start int64
	if cursor != nil {
		start = cursor.NextWindowStart
	} else if m.initialStart > 0 {
		start = m.initialStart
	} else {
		start = m.now().UTC().Add(-24 * time.Hour).Unix()
	}

	end := start + windowSeconds
	if nowTs := m.now().UTC().Unix(); end > nowTs {
		end = nowTs
	}

	return domain.WindowPlan{Start: start, End: end}, nil
}

// Commit durably advances the watermark to windowEnd. It must be
// called only after the submit, poll, decode, and emit stages have all
// succeeded for the exact window ending at windowEnd; the watermark is
// the sole guarantee against partial-window loss.
func (m *CursorManager) Commit(ctx context.Context, datasetID string, windowEnd int64) error {
	cursor, err := m.store.Load(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("failed to load cursor for %s: %w", datasetID, err)
	}
	if cursor != nil && windowEnd < cursor.NextWindowStart {
		return fmt.Errorf("refusing to move cursor for %s backwards (%d < %d)", datasetID, windowEnd, cursor.NextWindowStart)
	}

	if err := m.store.Save(ctx, domain.Cursor{DatasetID: datasetID, NextWindowStart: windowEnd}); err != nil {
		return fmt.Errorf("failed to save cursor for %s: %w", datasetID, err)
	}
	return nil
}
