// Package scheduler drives the periodic refresh of the weather record.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/tbaldwin/weather-widget/internal/observability"
)

// Refresher is the part of the record the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
	Describe() string
}

// Scheduler refreshes the record on a fixed interval. A tick that arrives
// while a previous refresh is still in flight is skipped, not queued, so slow
// upstream responses can never stack concurrent refreshes.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	rec          Refresher
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
	inFlight     atomic.Bool
}

// New creates a Scheduler. interval is the refresh period; fetchTimeout
// bounds each upstream fetch.
func New(rec Refresher, interval, fetchTimeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		rec:          rec,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler asynchronously.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.runRefresh)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("refresh scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runRefresh performs one guarded refresh. Errors are logged and swallowed;
// the record keeps serving its last good observation.
func (s *Scheduler) runRefresh() {
	if !s.inFlight.CompareAndSwap(false, true) {
		observability.RefreshSkippedTotal.Inc()
		s.logger.Warn("refresh tick skipped, previous refresh still in flight")
		return
	}
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	start := time.Now()
	if err := s.rec.Refresh(ctx); err != nil {
		observability.RefreshTotal.WithLabelValues("error").Inc()
		s.logger.Error("record refresh failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	observability.RefreshTotal.WithLabelValues("success").Inc()
	s.logger.Debug("record refreshed", zap.Duration("duration", time.Since(start)))
	s.logger.Debug(s.rec.Describe())
}
