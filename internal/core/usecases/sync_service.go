package usecases

import (
	"context"
	"fmt"
	"log"
	"time"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
)

// DatasetSpec is the externally supplied description of what to sync.
type DatasetSpec struct {
	DatasetID     string
	AttributeIDs  []string
	WindowSeconds int64
	Poll          domain.PollConfig
}

// SyncService runs the per-dataset sync cycle (next window, submit,
// poll, download, decode, emit, commit) until caught up to now. A
// single logical thread of control per dataset: windows commit in
// strictly increasing order because the cursor is one scalar
// watermark.
type SyncService struct {
	api     ports.ReportingAPI
	sink    ports.Sink
	cursors *CursorManager
	decode  ports.RowDecoder
}

func NewSyncService(api ports.ReportingAPI, sink ports.Sink, cursors *CursorManager, decode ports.RowDecoder) *SyncService {
	return &SyncService{
		api:     api,
		sink:    sink,
		cursors: cursors,
		decode:  decode,
	}
}

// SyncDataset loops over successive windows until the proposed window
// no longer advances, then stops cleanly. Any stage failure aborts the
// invocation with the cursor untouched; the next invocation resumes
// from the last committed watermark and reprocesses the same window
// end-to-end, relying on upsert idempotence to absorb duplicates.
func (s *SyncService) SyncDataset(ctx context.Context, spec DatasetSpec) (domain.SyncResult, error) {
	started := time.Now()
	result := domain.SyncResult{DatasetID: spec.DatasetID}

	for {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}

		plan, err := s.cursors.NextWindow(ctx, spec.DatasetID, spec.WindowSeconds)
		if err != nil {
			result.Duration = time.Since(started)
			return result, err
		}

		if !plan.Advances() {
			log.Printf("Dataset %s caught up at %d, stopping", spec.DatasetID, plan.Start)
			break
		}

		if result.WindowStart == 0 {
			result.WindowStart = plan.Start
		}
		result.WindowEnd = plan.End

		rows, err := s.syncWindow(ctx, spec, plan)
		if err != nil {
			result.Duration = time.Since(started)
			return result, fmt.Errorf("window [%d, %d) of dataset %s: %w", plan.Start, plan.End, spec.DatasetID, err)
		}

		if err := s.cursors.Commit(ctx, spec.DatasetID, plan.End); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}

		result.WindowsCommitted++
		result.RowsEmitted += rows
		log.Printf("Committed window [%d, %d) for dataset %s (%d rows)", plan.Start, plan.End, spec.DatasetID, rows)
	}

	result.Duration = time.Since(started)
	return result, nil
}

// syncWindow runs one window through submit, poll, download, decode,
// and emit. The cursor is not touched here.
func (s *SyncService) syncWindow(ctx context.Context, spec DatasetSpec, plan domain.WindowPlan) (int, error) {
	req := domain.ExportRequest{
		DatasetID:    spec.DatasetID,
		AttributeIDs: spec.AttributeIDs,
		StartTime:    plan.Start,
		EndTime:      plan.End,
	}

	log.Printf("Enqueuing export for dataset %s window [%d, %d)", spec.DatasetID, plan.Start, plan.End)
	job, err := s.api.EnqueueExport(ctx, req)
	if err != nil {
		return 0, err
	}
	log.Printf("Export job enqueued: %s", job.ID)

	job, err = AwaitCompletion(ctx, s.api, job, spec.Poll)
	if err != nil {
		return 0, err
	}

	body, err := s.api.Download(ctx, job)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	rows, err := s.decode(body)
	if err != nil {
		return 0, err
	}

	return EmitAll(ctx, spec.DatasetID, rows, s.sink)
}
