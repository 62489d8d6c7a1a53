// Package scheduler wires periodic jobs (weekly sweep, daily cache
// cleanup) to a cron runner. The job logic stays independently testable;
// this package only owns the triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a schedulable unit of work.
type Job struct {
	Name string
	// Spec is a standard 5-field cron expression.
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules. Job errors are
// logged, never propagated; a failing sweep tries again next week.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a stopped scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cron: cron.New(), logger: logger}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.logger.Info("scheduled job starting", "job", job.Name)
		if err := job.Run(context.Background()); err != nil {
			s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
			return
		}
		s.logger.Info("scheduled job finished", "job", job.Name)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", job.Spec, job.Name, err)
	}
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Default schedules.
const (
	// WeeklySweepSpec runs the reconciliation sweep Sunday 03:00.
	WeeklySweepSpec = "0 3 * * 0"
	// DailyCleanupSpec purges expired similarity rows at 04:30 every day.
	DailyCleanupSpec = "30 4 * * *"
)
