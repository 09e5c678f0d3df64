package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDataset = errors.New("invalid dataset id")
	ErrSyncInProgress = errors.New("sync already in progress for dataset")
)

// SubmissionError means the reporting API rejected the export request.
// Permanent for this window; the cycle aborts without advancing the cursor.
type SubmissionError struct {
	DatasetID  string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("export submission for dataset %s rejected (status %d): %v", e.DatasetID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("export submission for dataset %s failed: %v", e.DatasetID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError means the remote export computation failed. Permanent;
// not retried within the invocation.
type JobFailedError struct {
	JobID  string
	Status JobStatus
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("export job %s failed with status %q", e.JobID, e.Status)
}

// PollTimeoutError means the export did not complete within the poll
// budget. Transient: the same window is retried on the next invocation.
type PollTimeoutError struct {
	JobID    string
	Attempts int
	Elapsed  time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("export job %s not complete after %d polls (%v elapsed)", e.JobID, e.Attempts, e.Elapsed)
}

// DecodeError means the payload was malformed or the byte stream
// terminated abnormally. Transient: nothing was committed, so the next
// invocation reprocesses the whole window with a fresh job.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("payload decode failed at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("payload decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EmitError means the sink rejected a row. Aborts the window without
// committing.
type EmitError struct {
	Table string
	Row   int
	Err   error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("upsert of row %d into %s failed: %v", e.Row, e.Table, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// ErrorKind labels an error for notifications and metrics.
func ErrorKind(err error) string {
	var (
		submission  *SubmissionError
		jobFailed   *JobFailedError
		pollTimeout *PollTimeoutError
		decode      *DecodeError
		emit        *EmitError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &submission):
		return "submission"
	case errors.As(err, &jobFailed):
		return "job_failed"
	case errors.As(err, &pollTimeout):
		return "poll_timeout"
	case errors.As(err, &decode):
		return "decode"
	case errors.As(err, &emit):
		return "emit"
	default:
		return "other"
	}
}

// Transient reports whether the failure should resolve on a later
// invocation of the same window.
func Transient(err error) bool {
	switch ErrorKind(err) {
	case "poll_timeout", "decode":
		return true
	default:
		return false
	}
}
