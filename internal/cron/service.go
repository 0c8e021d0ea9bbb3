package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/instafit/fieldops-backend/pkg/logger"
	"github.com/instafit/fieldops-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval, at most one worker
// instance at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	s := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
// Cycle failures are logged; only cancellation stops the loop.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job once under the distributed lock. Job failures do
// not stop later jobs; they are combined into the returned error. Losing the
// lock between jobs ends the cycle.
func (s *Service) RunOnce(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "cycle_id", uuid.NewString())
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		s.metrics.IncSkippedCycle()
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	var errs error
	for i, job := range s.registry.Jobs() {
		if i > 0 {
			if err := s.lock.Refresh(ctx); err != nil {
				return multierr.Append(errs, fmt.Errorf("before %s: %w", job.Name(), err))
			}
		}
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(job.Name(), err == nil, elapsed, time.Now())

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "job failed", err)
		return err
	}
	s.logg.Info(ctx, "job completed")
	return nil
}
