package usecases

import (
	"context"
	"testing"
	"time"

	"reporting-sync/internal/shell/sink"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time {
		return time.Unix(unix, 0).UTC()
	}
}

func TestNextWindowFromInitialStart(t *testing.T) {
	store := sink.NewMemorySink()
	manager := NewCursorManager(store, 1717480000).WithClock(fixedClock(1717490000))

	plan, err := manager.NextWindow(context.Background(), "conversation", 3600)
	if err != nil {
		t.Fatalf("NextWindow failed: %v", err)
	}

	if plan.Start != 1717480000 {
		t.Errorf("Expected window start 1717480000, got %d", plan.Start)
	}
	if plan.End != 1717483600 {
		t.Errorf("Expected window end 1717483600, got %d", plan.End)
	}
	if !plan.Advances() {
		t.Error("Expected first window to advance")
	}
}

func TestNextWindowDefaultsToLookback(t *testing.T) {
	store := sink.NewMemorySink()
	now := int64(1717490000)
	manager := NewCursorManager(store, 0).WithClock(fixedClock(now))

	plan, err := manager.NextWindow(context.Background(), "conversation", 3600)
	if err != nil {
		t.Fatalf("NextWindow failed: %v", err)
	}

	wantStart := now - 24*3600
	if plan.Start != wantStart {
		t.Errorf("Expected window start %d (24h lookback), got %d", wantStart, plan.Start)
	}
	if plan.End != wantStart+3600 {
		t.Errorf("Expected window end %d, got %d", wantStart+3600, plan.End)
	}
}

func TestNextWindowClippedToNow(t *testing.T) {
	store := sink.NewMemorySink()
	// The clock sits 1000 seconds past the cursor, well inside the
	// 3600 second window.
	manager := NewCursorManager(store, 1717480000).WithClock(fixedClock(1717481000))

	plan, err := manager.NextWindow(context.Background(), "conversation", 3600)
	if err != nil {
		t.Fatalf("NextWindow failed: %v", err)
	}

	if plan.End != 1717481000 {
		t.Errorf("Expected window end clipped to 1717481000, got %d", plan.End)
	}
	if !plan.Advances() {
		t.Error("Expected clipped window to still advance")
	}
}

func TestNextWindowCaughtUp(t *testing.T) {
	store := sink.NewMemorySink()
	manager := NewCursorManager(store, 1717480000).WithClock(fixedClock(1717480000))

	plan, err := manager.NextWindow(context.Background(), "conversation", 3600)
	if err != nil {
		t.Fatalf("NextWindow failed: %v", err)
	}

	if plan.Advances() {
		t.Errorf("Expected no advance when cursor equals now, got [%d, %d)", plan.Start, plan.End)
	}
}

func TestCommitAdvancesWatermark(t *testing.T) {
	store := sink.NewMemorySink()
	manager := NewCursorManager(store, 1717480000).WithClock(fixedClock(1717490000))
	ctx := context.Background()

	if err := manager.Commit(ctx, "conversation", 1717483600); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// The next window starts exactly at the committed end, no gap and
	// no overlap.
	plan, err := manager.NextWindow(ctx, "conversation", 3600)
	if err != nil {
		t.Fatalf("NextWindow failed: %v", err)
	}
	if plan.Start != 1717483600 {
		t.Errorf("Expected next window start 1717483600, got %d", plan.Start)
	}
	if plan.End != 1717487200 {
		t.Errorf("Expected next window end 1717487200, got %d", plan.End)
	}
}

func TestCommitRefusesBackwardsMove(t *testing.T) {
	store := sink.NewMemorySink()
	manager := NewCursorManager(store, 1717480000).WithClock(fixedClock(1717490000))
	ctx := context.Background()

	if err := manager.Commit(ctx, "conversation", 1717487200); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := manager.Commit(ctx, "conversation", 1717483600); err == nil {
		t.Error("Expected error committing a watermark behind the current one")
	}

	cursor, err := store.Load(ctx, "conversation")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cursor == nil || cursor.NextWindowStart != 1717487200 {
		t.Errorf("Expected watermark to stay at 1717487200, got %+v", cursor)
	}
}
