package application

import (
	"context"
	"log"
	"time"
)

// Runner is the subset of Service the scheduler needs.
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// Scheduler triggers a pipeline run once a day at a fixed UTC time.
type Scheduler struct {
	runner  Runner
	dailyAt string
	logger  *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(runner Runner, dailyAt string, logger *log.Logger) *Scheduler {
	return &Scheduler{runner: runner, dailyAt: dailyAt, logger: logger}
}

// Start begins the scheduler loop. It returns when the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			if _, err := s.runner.Run(ctx); err != nil && s.logger != nil {
				s.logger.Printf("scheduled run error: %v", err)
			}
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
