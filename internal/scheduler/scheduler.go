// Package scheduler wraps gocron for the periodic documentation refresh.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler manages the periodic refresh job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRefresh registers task to run every interval. Returns the job ID.
func (s *Scheduler) ScheduleRefresh(interval time.Duration, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("refresh"),
	)
	if err != nil {
		return "", fmt.Errorf("create refresh job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting refresh scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping refresh scheduler")
	return s.scheduler.Shutdown()
}
