package runner

import (
	"context"
	"log"

	"reporting-sync/internal/core/domain"
)

// NullSyncNotifier is used when notifications are disabled.
type NullSyncNotifier struct{}

func NewNullSyncNotifier() *NullSyncNotifier {
	return &NullSyncNotifier{}
}

func (n *NullSyncNotifier) SyncComplete(_ context.Context, run domain.SyncRun, _ string) error {
	log.Printf("No notifier configured - skipping completion notification for run: %s", run.ID)
	return nil
}
