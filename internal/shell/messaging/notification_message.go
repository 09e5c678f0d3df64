package messaging

import (
	"encoding/json"
	"time"

	"reporting-sync/internal/core/domain"
)

const (
	EventSyncCompleted = "sync-completed"
	EventSyncFailed    = "sync-failed"
)

// SyncNotificationMessage is the event published after each sync
// invocation.
type SyncNotificationMessage struct {
	Version   string         `json:"version"`
	EventType string         `json:"event_type"`
	Timestamp string         `json:"timestamp"` // RFC3339
	RunID     string         `json:"run_id"`
	DatasetID string         `json:"dataset_id"`
	Context   map[string]any `json:"context"`
}

// NewSyncNotification builds the event for a finished run. A non-empty
// errKind marks the run failed and carries the error taxonomy label.
func NewSyncNotification(run domain.SyncRun, errKind string) *SyncNotificationMessage {
	context := map[string]any{
		"window_start":      run.WindowStart,
		"window_end":        run.WindowEnd,
		"windows_committed": run.WindowsCommitted,
		"rows_emitted":      run.RowsEmitted,
	}

	eventType := EventSyncCompleted
	if run.Status == domain.RunFailed {
		eventType = EventSyncFailed
		context["error_kind"] = errKind
		context["error_message"] = run.Error
	}

	return &SyncNotificationMessage{
		Version:   "v1",
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     run.ID,
		DatasetID: run.DatasetID,
		Context:   context,
	}
}

func (n *SyncNotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}
