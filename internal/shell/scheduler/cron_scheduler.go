package scheduler

import (
	"context"
	"errors"
	"log"

	"github.com/robfig/cron/v3"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/shell/runner"
)

// CronScheduler re-invokes dataset sync runs on a cron schedule. Each
// invocation resumes from the last committed cursor, so a failed run
// is simply retried at the next tick.
type CronScheduler struct {
	cron    *cron.Cron
	runners []*runner.Runner
}

func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		cron: cron.New(), // standard 5-field format
	}
}

// AddRunner schedules a dataset runner with a cron expression.
func (s *CronScheduler) AddRunner(spec string, r *runner.Runner) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				return
			}
			log.Printf("Scheduled sync for dataset %s failed: %v", r.DatasetID(), err)
		}
	})
	if err != nil {
		return err
	}

	s.runners = append(s.runners, r)
	log.Printf("Scheduled dataset %s with cron expression %q", r.DatasetID(), spec)
	return nil
}

// Start runs the scheduler until the context is cancelled.
func (s *CronScheduler) Start(ctx context.Context) {
	log.Printf("Starting cron scheduler with %d dataset(s)", len(s.runners))
	s.cron.Start()

	<-ctx.Done()
	log.Println("Scheduler context cancelled, stopping")
}

func (s *CronScheduler) Stop() {
	log.Println("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron scheduler stopped")
}
