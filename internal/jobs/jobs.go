package jobs

import (
	"context"
	"time"

	"StorefrontAPI/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CouponExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type StaleOrderCanceller interface {
	CancelStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

const (
	CouponSpec     = "@every 1h"
	StaleOrderSpec = "@every 15m"
	TokenSpec      = "@daily"
)

// Scheduler runs the periodic maintenance tasks.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	coupons    CouponExpirer
	orders     StaleOrderCanceller
	tokens     TokenPurger
	staleAfter time.Duration
	timeout    time.Duration
}

func NewScheduler(coupons CouponExpirer, orders StaleOrderCanceller, tokens TokenPurger, staleAfter time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger:     logger,
		coupons:    coupons,
		orders:     orders,
		tokens:     tokens,
		staleAfter: staleAfter,
		timeout:    time.Minute,
	}
}

// Register adds every job to the cron table.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(CouponSpec, func() { s.ExpireCoupons(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(StaleOrderSpec, func() { s.CancelStaleOrders(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(TokenSpec, func() { s.PurgeTokens(context.Background()) }); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) ExpireCoupons(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.coupons.DeactivateExpired(ctx, time.Now())
	s.finish("expire_coupons", err, zap.Int64("deactivated", n))
}

func (s *Scheduler) CancelStaleOrders(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.orders.CancelStale(ctx, s.staleAfter)
	s.finish("cancel_stale_orders", err, zap.Int("cancelled", n))
}

func (s *Scheduler) PurgeTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.tokens.PurgeExpired(ctx)
	s.finish("purge_verification_tokens", err, zap.Int64("purged", n))
}

func (s *Scheduler) finish(job string, err error, count zap.Field) {
	metrics.JobRun(job, err == nil)
	if err != nil {
		s.logger.Error("job failed", zap.String("job", job), zap.Error(err))
		return
	}
	s.logger.Info("job finished", zap.String("job", job), count)
}
