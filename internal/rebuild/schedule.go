package rebuild

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

const scheduleName = "periodic-full-rebuild"

// Scheduler fires fn every interval.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler running fn every interval. Runs never
// overlap; a tick that lands while fn is still running is skipped.
func NewScheduler(interval time.Duration, fn func()) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(scheduleName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic build job: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the schedule.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", logfields.Schedule(scheduleName))
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler", logfields.Schedule(scheduleName))
	return s.scheduler.Shutdown()
}
