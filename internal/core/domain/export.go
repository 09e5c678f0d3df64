package domain

import (
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the job has reached a final state and
// polling should stop.
func (s JobStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ExportRequest describes one export window for a dataset. Immutable
// once submitted to the reporting API.
type ExportRequest struct {
	DatasetID    string   `json:"dataset_id"`
	AttributeIDs []string `json:"attribute_ids"`
	StartTime    int64    `json:"start_time"`
	EndTime      int64    `json:"end_time"`
}

// ExportJob is the remote job computing an export. Only the poller
// transitions its status; it is discarded once its rows have been
// emitted or it has permanently failed.
type ExportJob struct {
	ID          string        `json:"job_identifier"`
	Request     ExportRequest `json:"request"`
	Status      JobStatus     `json:"status"`
	DownloadURL string        `json:"download_url,omitempty"`
}

// PollConfig bounds the poll loop waiting for an export job to finish.
type PollConfig struct {
	Interval          time.Duration
	MaxInterval       time.Duration
	BackoffMultiplier float64
	MaxAttempts       int
	Timeout           time.Duration
}

// SyncResult summarizes one sync invocation for a dataset.
// WindowStart and WindowEnd span the windows the invocation worked on,
// including a final window that failed before commit.
type SyncResult struct {
	DatasetID        string
	WindowStart      int64
	WindowEnd        int64
	WindowsCommitted int
	RowsEmitted      int
	Duration         time.Duration
}

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// SyncRun is the persisted record of one sync invocation.
type SyncRun struct {
	ID               string     `json:"id"`
	DatasetID        string     `json:"dataset_id"`
	WindowStart      int64      `json:"window_start"`
	WindowEnd        int64      `json:"window_end"`
	Status           RunStatus  `json:"status"`
	WindowsCommitted int        `json:"windows_committed"`
	RowsEmitted      int        `json:"rows_emitted"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

func (r SyncRun) WithCompleted(result SyncResult, finishedAt time.Time) SyncRun {
	r.Status = RunCompleted
	r.WindowsCommitted = result.WindowsCommitted
	r.RowsEmitted = result.RowsEmitted
	r.FinishedAt = &finishedAt
	return r
}

func (r SyncRun) WithFailed(result SyncResult, errMsg string, finishedAt time.Time) SyncRun {
	r.Status = RunFailed
	r.WindowsCommitted = result.WindowsCommitted
	r.RowsEmitted = result.RowsEmitted
	r.Error = errMsg
	r.FinishedAt = &finishedAt
	return r
}
