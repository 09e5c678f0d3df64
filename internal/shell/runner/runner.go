package runner

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
	"reporting-sync/internal/core/usecases"
)

// DatasetSyncer runs one sync invocation for a dataset.
type DatasetSyncer interface {
	SyncDataset(ctx context.Context, spec usecases.DatasetSpec) (domain.SyncResult, error)
}

// DatasetLockManager serializes invocations per dataset. The cursor
// assumes a single active invocation; if the host runs overlapping
// schedules the lock keeps them from racing.
type DatasetLockManager interface {
	TryAcquire(datasetID string) (bool, error)
	Release(datasetID string) error
}

// Runner wraps the sync service with the operational concerns of one
// invocation: locking, run history, notifications, and metrics.
type Runner struct {
	syncer   DatasetSyncer
	spec     usecases.DatasetSpec
	runs     ports.RunRepository
	notifier SyncCompletionNotifier
	locks    DatasetLockManager
}

func NewRunner(syncer DatasetSyncer, spec usecases.DatasetSpec, runs ports.RunRepository, notifier SyncCompletionNotifier, locks DatasetLockManager) *Runner {
	if notifier == nil {
		notifier = NewNullSyncNotifier()
	}
	return &Runner{
		syncer:   syncer,
		spec:     spec,
		runs:     runs,
		notifier: notifier,
		locks:    locks,
	}
}

// DatasetID returns the dataset this runner is bound to.
func (r *Runner) DatasetID() string {
	return r.spec.DatasetID
}

// RunOnce executes a single sync invocation end-to-end. A run that
// cannot take the dataset lock is recorded as skipped and is not an
// error: another invocation is already working the same cursor.
func (r *Runner) RunOnce(ctx context.Context) (domain.SyncRun, error) {
	run := domain.SyncRun{
		ID:        uuid.New().String(),
		DatasetID: r.spec.DatasetID,
		StartedAt: time.Now().UTC(),
	}

	if r.locks != nil {
		acquired, err := r.locks.TryAcquire(r.spec.DatasetID)
		if err != nil {
			return run, err
		}
		if !acquired {
			log.Printf("Dataset %s is locked by another invocation, skipping", r.spec.DatasetID)
			run.Status = domain.RunSkipped
			finished := time.Now().UTC()
			run.FinishedAt = &finished
			r.saveRun(ctx, run)
			return run, domain.ErrSyncInProgress
		}
		defer func() {
			if err := r.locks.Release(r.spec.DatasetID); err != nil {
				log.Printf("Failed to release lock for dataset %s: %v", r.spec.DatasetID, err)
			}
		}()
	}

	SyncsCurrentlyRunning.Inc()
	defer SyncsCurrentlyRunning.Dec()

	log.Printf("Starting sync run %s for dataset %s", run.ID, r.spec.DatasetID)
	result, err := r.syncer.SyncDataset(ctx, r.spec)

	run.WindowStart = result.WindowStart
	run.WindowEnd = result.WindowEnd
	finished := time.Now().UTC()

	WindowsCommittedTotal.WithLabelValues(r.spec.DatasetID).Add(float64(result.WindowsCommitted))
	RowsEmittedTotal.WithLabelValues(r.spec.DatasetID).Add(float64(result.RowsEmitted))
	SyncDuration.WithLabelValues(r.spec.DatasetID).Observe(result.Duration.Seconds())

	errKind := domain.ErrorKind(err)
	if err != nil {
		SyncFailuresTotal.WithLabelValues(r.spec.DatasetID, errKind).Inc()
		run = run.WithFailed(result, err.Error(), finished)
		log.Printf("Sync run %s failed after %d windows (%d rows): %v", run.ID, result.WindowsCommitted, result.RowsEmitted, err)
	} else {
		run = run.WithCompleted(result, finished)
		log.Printf("Sync run %s completed: %d windows, %d rows", run.ID, result.WindowsCommitted, result.RowsEmitted)
	}

	r.saveRun(ctx, run)

	if notifyErr := r.notifier.SyncComplete(ctx, run, errKind); notifyErr != nil {
		// Notification failures never fail the run itself.
		log.Printf("Failed to send completion notification for run %s: %v", run.ID, notifyErr)
	}

	return run, err
}

func (r *Runner) saveRun(ctx context.Context, run domain.SyncRun) {
	if r.runs == nil {
		return
	}
	if err := r.runs.Save(ctx, run); err != nil {
		log.Printf("Failed to save run record %s: %v", run.ID, err)
	}
}
