package http

import (
	"time"

	"reporting-sync/internal/core/domain"
)

// CursorResponse is the API shape of a dataset watermark.
type CursorResponse struct {
	DatasetID       string `json:"dataset_id"`
	NextWindowStart int64  `json:"next_window_start"`
	Initialized     bool   `json:"initialized"`
}

// RunResponse is the API shape of a sync run record.
type RunResponse struct {
	ID               string     `json:"id"`
	DatasetID        string     `json:"dataset_id"`
	WindowStart      int64      `json:"window_start"`
	WindowEnd        int64      `json:"window_end"`
	Status           string     `json:"status"`
	WindowsCommitted int        `json:"windows_committed"`
	RowsEmitted      int        `json:"rows_emitted"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// TriggerResponse acknowledges an on-demand sync request.
type TriggerResponse struct {
	DatasetID string `json:"dataset_id"`
	Triggered bool   `json:"triggered"`
	Detail    string `json:"detail,omitempty"`
}

func runResponse(run domain.SyncRun) RunResponse {
	return RunResponse{
		ID:               run.ID,
		DatasetID:        run.DatasetID,
		WindowStart:      run.WindowStart,
		WindowEnd:        run.WindowEnd,
		Status:           string(run.Status),
		WindowsCommitted: run.WindowsCommitted,
		RowsEmitted:      run.RowsEmitted,
		Error:            run.Error,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
	}
}
