package ports

import (
	"context"
	"io"

	"reporting-sync/internal/core/domain"
)

// ReportingAPI is the remote reporting export service.
type ReportingAPI interface {
	// EnqueueExport submits an export job for a dataset window and
	// returns the created job in pending state.
	EnqueueExport(ctx context.Context, req domain.ExportRequest) (*domain.ExportJob, error)

	// GetJob fetches the current job status. A nil job with a nil error
	// means the job record is not visible yet (the API answers 404
	// briefly after enqueue); callers treat that as non-terminal.
	GetJob(ctx context.Context, jobID string) (*domain.ExportJob, error)

	// Download opens a streaming byte source for a completed job's
	// compressed payload. The caller owns the ReadCloser.
	Download(ctx context.Context, job *domain.ExportJob) (io.ReadCloser, error)
}

// RowIterator pulls decoded rows one at a time. Next returns io.EOF
// after the final row.
type RowIterator interface {
	Next() (domain.Row, error)
}

// RowDecoder turns a compressed payload stream into a row iterator.
// It fails if the stream does not begin with a valid header.
type RowDecoder func(r io.Reader) (RowIterator, error)
