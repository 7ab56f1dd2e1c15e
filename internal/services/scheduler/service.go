package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/common"
)

// RunFunc is the work executed on each scheduled fire.
type RunFunc func(ctx context.Context) error

// Service fires a run function on a weekly cron schedule.
//
// Instead of a background cron goroutine, the service wakes on a poll
// interval and compares the clock against the next scheduled fire time.
// A run that overlaps the next wake is skipped, never queued; a run that
// fails or panics is logged and the loop keeps going.
type Service struct {
	cfg      common.ScheduleConfig
	schedule cron.Schedule
	poll     time.Duration
	run      RunFunc
	logger   arbor.ILogger

	mu        sync.Mutex
	isRunning bool
}

// NewService creates a scheduler for the given run function.
func NewService(cfg common.ScheduleConfig, run RunFunc, logger arbor.ILogger) (*Service, error) {
	expr, err := cfg.CronExpr()
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	poll, err := time.ParseDuration(cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid poll_interval %q: %w", cfg.PollInterval, err)
	}

	return &Service{
		cfg:      cfg,
		schedule: schedule,
		poll:     poll,
		run:      run,
		logger:   logger,
	}, nil
}

// Start blocks until ctx is cancelled, firing the run function when the
// schedule comes due. With run_on_start set, one run executes immediately.
func (s *Service) Start(ctx context.Context) error {
	next := s.schedule.Next(time.Now())
	if s.logger != nil {
		s.logger.Info().
			Str("day", s.cfg.DayOfWeek).
			Str("time", s.cfg.TimeOfDay).
			Str("next_run", next.Format(time.RFC3339)).
			Msg("Scheduler started")
	}

	if s.cfg.RunOnStart {
		s.executeRun(ctx, "startup")
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info().Msg("Scheduler stopped")
			}
			return ctx.Err()
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			s.executeRun(ctx, "schedule")
			next = s.schedule.Next(time.Now())
			if s.logger != nil {
				s.logger.Info().
					Str("next_run", next.Format(time.RFC3339)).
					Msg("Next run scheduled")
			}
		}
	}
}

// executeRun runs the work once, guarding against overlap and panics.
func (s *Service) executeRun(ctx context.Context, trigger string) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn().Str("trigger", trigger).Msg("Previous run still active, skipping")
		}
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			common.WriteCrashFile(r, common.GetStackTrace())
			if s.logger != nil {
				s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Run panicked")
			}
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	start := time.Now()
	if s.logger != nil {
		s.logger.Info().Str("trigger", trigger).Msg("Run started")
	}

	if err := s.run(ctx); err != nil {
		if s.logger != nil {
			s.logger.Error().
				Err(err).
				Str("trigger", trigger).
				Str("duration", time.Since(start).Round(time.Millisecond).String()).
				Msg("Run failed")
		}
		return
	}

	if s.logger != nil {
		s.logger.Info().
			Str("trigger", trigger).
			Str("duration", time.Since(start).Round(time.Millisecond).String()).
			Msg("Run completed")
	}
}
