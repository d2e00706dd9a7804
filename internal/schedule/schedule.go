// Package schedule fires a job once per day at a fixed local time.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// Job is invoked at every scheduled time.
type Job func(ctx context.Context) error

// Config sets the daily fire time.
type Config struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Scheduler runs Job daily until its context ends.
type Scheduler struct {
	cfg    Config
	clock  news.Clock
	job    Job
	logger *zap.Logger
	after  func(time.Duration) <-chan time.Time
}

// New constructs a Scheduler.
func New(cfg Config, clock news.Clock, job Job, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, clock: clock, job: job, logger: logger, after: time.After}
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Run blocks until ctx is done. Job errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := NextRun(s.clock.Now(), s.cfg.Hour, s.cfg.Minute, s.cfg.Location)
		wait := next.Sub(s.clock.Now())
		s.logger.Info("next crawl scheduled", zap.Time("at", next), zap.Duration("in", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
		}

		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled crawl failed", zap.Error(err))
		}
	}
}
