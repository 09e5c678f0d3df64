package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/usecases"
	"reporting-sync/internal/shell/storage"
)

type fakeSyncer struct {
	result domain.SyncResult
	err    error
	calls  int
}

func (f *fakeSyncer) SyncDataset(_ context.Context, spec usecases.DatasetSpec) (domain.SyncResult, error) {
	f.calls++
	f.result.DatasetID = spec.DatasetID
	return f.result, f.err
}

type recordingRunRepo struct {
	saved []domain.SyncRun
}

func (r *recordingRunRepo) Save(_ context.Context, run domain.SyncRun) error {
	r.saved = append(r.saved, run)
	return nil
}

func (r *recordingRunRepo) ListByDataset(context.Context, string, int) ([]domain.SyncRun, error) {
	return r.saved, nil
}

type recordingNotifier struct {
	runs  []domain.SyncRun
	kinds []string
	err   error
}

func (n *recordingNotifier) SyncComplete(_ context.Context, run domain.SyncRun, errKind string) error {
	n.runs = append(n.runs, run)
	n.kinds = append(n.kinds, errKind)
	return n.err
}

func testRunnerSpec() usecases.DatasetSpec {
	return usecases.DatasetSpec{DatasetID: "conversation", WindowSeconds: 3600}
}

func TestRunOnceCompleted(t *testing.T) {
	syncer := &fakeSyncer{result: domain.SyncResult{
		WindowStart:      1717480000,
		WindowEnd:        1717487200,
		WindowsCommitted: 2,
		RowsEmitted:      6,
		Duration:         3 * time.Second,
	}}
	repo := &recordingRunRepo{}
	notifier := &recordingNotifier{}

	r := NewRunner(syncer, testRunnerSpec(), repo, notifier, storage.NewMemoryLockManager())
	run, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if run.Status != domain.RunCompleted {
		t.Errorf("Expected completed status, got %s", run.Status)
	}
	if run.WindowsCommitted != 2 || run.RowsEmitted != 6 {
		t.Errorf("Expected result counters on run, got %+v", run)
	}
	if run.WindowStart != 1717480000 || run.WindowEnd != 1717487200 {
		t.Errorf("Expected synced range on run, got [%d, %d)", run.WindowStart, run.WindowEnd)
	}
	if run.FinishedAt == nil {
		t.Error("Expected finished timestamp")
	}

	if len(repo.saved) != 1 {
		t.Fatalf("Expected 1 run record saved, got %d", len(repo.saved))
	}
	if len(notifier.runs) != 1 || notifier.kinds[0] != "none" {
		t.Errorf("Expected one completion notification with kind none, got %v", notifier.kinds)
	}
}

func TestRunOnceFailed(t *testing.T) {
	syncErr := &domain.PollTimeoutError{JobID: "job-1", Attempts: 60}
	syncer := &fakeSyncer{err: syncErr}
	repo := &recordingRunRepo{}
	notifier := &recordingNotifier{}

	r := NewRunner(syncer, testRunnerSpec(), repo, notifier, storage.NewMemoryLockManager())
	run, err := r.RunOnce(context.Background())
	if err == nil {
		t.Fatal("Expected error from failed sync")
	}

	if run.Status != domain.RunFailed {
		t.Errorf("Expected failed status, got %s", run.Status)
	}
	if run.Error == "" {
		t.Error("Expected error text on run record")
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != "poll_timeout" {
		t.Errorf("Expected poll_timeout notification kind, got %v", notifier.kinds)
	}
}

func TestRunOnceSkippedWhenLocked(t *testing.T) {
	locks := storage.NewMemoryLockManager()
	if acquired, _ := locks.TryAcquire("conversation"); !acquired {
		t.Fatal("Failed to pre-acquire lock")
	}

	syncer := &fakeSyncer{}
	repo := &recordingRunRepo{}
	notifier := &recordingNotifier{}

	r := NewRunner(syncer, testRunnerSpec(), repo, notifier, locks)
	run, err := r.RunOnce(context.Background())
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Fatalf("Expected ErrSyncInProgress, got %v", err)
	}

	if run.Status != domain.RunSkipped {
		t.Errorf("Expected skipped status, got %s", run.Status)
	}
	if syncer.calls != 0 {
		t.Errorf("Expected syncer untouched, got %d calls", syncer.calls)
	}
	if len(repo.saved) != 1 || repo.saved[0].Status != domain.RunSkipped {
		t.Errorf("Expected skipped run recorded, got %+v", repo.saved)
	}
	// A skipped run sends no notification.
	if len(notifier.runs) != 0 {
		t.Errorf("Expected no notification for skipped run, got %d", len(notifier.runs))
	}
}

func TestRunOnceReleasesLock(t *testing.T) {
	locks := storage.NewMemoryLockManager()
	syncer := &fakeSyncer{}

	r := NewRunner(syncer, testRunnerSpec(), nil, nil, locks)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	// The lock is free again once the run finishes.
	acquired, err := locks.TryAcquire("conversation")
	if err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}
	if !acquired {
		t.Error("Expected lock released after run")
	}
}

func TestRunOnceNotifierFailureDoesNotFailRun(t *testing.T) {
	syncer := &fakeSyncer{}
	notifier := &recordingNotifier{err: errors.New("broker unavailable")}

	r := NewRunner(syncer, testRunnerSpec(), nil, notifier, storage.NewMemoryLockManager())
	run, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected run to succeed despite notifier failure, got %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Errorf("Expected completed status, got %s", run.Status)
	}
}
