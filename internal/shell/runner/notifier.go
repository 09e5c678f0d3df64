package runner

import (
	"context"

	"reporting-sync/internal/core/domain"
)

// SyncCompletionNotifier is told about every finished sync invocation.
type SyncCompletionNotifier interface {
	SyncComplete(ctx context.Context, run domain.SyncRun, errKind string) error
}
