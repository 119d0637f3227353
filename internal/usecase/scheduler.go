package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentGenesis/internal/ports"
)

// Runner is the part of the pipeline a scheduler needs.
type Runner interface {
	Start(ctx context.Context) bool
}

// Scheduler wires the interval driver with the Genesis pipeline.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring sweeps.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers the pipeline with the provided driver. A tick that lands
// while a run is still iterating is dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if s.runner.Start(ctx) {
			s.log().Info("scheduled sweep started", "trigger", trigger.Format(time.RFC3339))
			return
		}
		s.log().Debug("scheduled sweep skipped, run in progress", "trigger", trigger.Format(time.RFC3339))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
