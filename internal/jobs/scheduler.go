// Package jobs runs the periodic maintenance tasks: expiring abandoned
// pending interviews and resetting monthly practice quotas.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

// Expirer moves stale pending interviews to expired.
type Expirer interface {
	ExpireStale(ctx context.Context, after time.Duration) (int, error)
}

// QuotaResetter zeroes practice usage for students whose reset date passed.
type QuotaResetter interface {
	ResetPracticeUsage(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron instance and the two jobs.
type Scheduler struct {
	cfg      config.JobsConfig
	expirer  Expirer
	resetter QuotaResetter
	log      *zap.Logger
	cron     *cron.Cron
	timeout  time.Duration
	now      func() time.Time
}

func NewScheduler(cfg config.JobsConfig, e Expirer, r QuotaResetter, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		expirer:  e,
		resetter: r,
		log:      log,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		timeout:  time.Minute,
		now:      time.Now,
	}
}

// Start registers both jobs and starts the cron loop.  It is a no-op when
// jobs are disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.log.Info("scheduled jobs disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.ExpirySchedule, func() { _ = s.RunExpiry(context.Background()) }); err != nil {
		return fmt.Errorf("schedule expiry job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.QuotaSchedule, func() { _ = s.RunQuotaReset(context.Background()) }); err != nil {
		return fmt.Errorf("schedule quota reset job: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduled jobs started",
		zap.String("expiry", s.cfg.ExpirySchedule), zap.String("quota_reset", s.cfg.QuotaSchedule))
	return nil
}

// Stop halts the cron loop and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduled jobs still running at shutdown")
	}
}

// RunExpiry expires pending interviews older than the configured age.
func (s *Scheduler) RunExpiry(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireStale(ctx, s.cfg.ExpiryAfter)
	if err != nil {
		s.log.Error("expiry job failed", zap.Int("expired", n), zap.Error(err))
		return err
	}
	if n > 0 {
		s.log.Info("expired stale interviews", zap.Int("count", n))
	}
	return nil
}

// RunQuotaReset resets practice counters that are due.
func (s *Scheduler) RunQuotaReset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.resetter.ResetPracticeUsage(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("quota reset job failed", zap.Error(err))
		return err
	}
	s.log.Info("practice quotas reset", zap.Int64("students", n))
	return nil
}
