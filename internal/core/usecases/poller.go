package usecases

import (
	"context"
	"log"
	"time"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
)

// AwaitCompletion polls an export job until it reaches a terminal
// status. Between polls it sleeps for the current interval, then
// multiplies the interval by the backoff multiplier, capped at
// MaxInterval. A job that is still non-terminal when MaxAttempts or
// Timeout is exhausted yields a PollTimeoutError; the whole window is
// retried on a later invocation.
func AwaitCompletion(ctx context.Context, api ports.ReportingAPI, job *domain.ExportJob, cfg domain.PollConfig) (*domain.ExportJob, error) {
	start := time.Now()
	interval := cfg.Interval

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		polled, err := api.GetJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}

		// A nil job means the API has not made the job record visible
		// yet (transient 404 right after enqueue). Treat as pending.
		if polled != nil {
			log.Printf("Poll attempt %d for job %s: status=%s", attempt, job.ID, polled.Status)

			if polled.Status.Terminal() {
				if polled.Status == domain.StatusFailed {
					return nil, &domain.JobFailedError{JobID: job.ID, Status: polled.Status}
				}
				polled.Request = job.Request
				return polled, nil
			}
		} else {
			log.Printf("Poll attempt %d for job %s: job not visible yet", attempt, job.ID)
		}

		if cfg.Timeout > 0 && time.Since(start)+interval > cfg.Timeout {
			return nil, &domain.PollTimeoutError{JobID: job.ID, Attempts: attempt, Elapsed: time.Since(start)}
		}

		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}
		interval = nextInterval(interval, cfg)
	}

	return nil, &domain.PollTimeoutError{JobID: job.ID, Attempts: cfg.MaxAttempts, Elapsed: time.Since(start)}
}

// nextInterval applies the backoff multiplier, capped at MaxInterval.
func nextInterval(current time.Duration, cfg domain.PollConfig) time.Duration {
	if cfg.BackoffMultiplier <= 1 {
		return current
	}
	next := time.Duration(float64(current) * cfg.BackoffMultiplier)
	if cfg.MaxInterval > 0 && next > cfg.MaxInterval {
		next = cfg.MaxInterval
	}
	return next
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
