package sweeper

import (
	"context"
	"time"

	"github.com/kiryu-dev/battleship/internal/domain"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type expirer interface {
	SweepExpired(ctx context.Context) (domain.SweepReport, error)
}

type useCase struct {
	hub         expirer
	period      time.Duration
	runs        *atomic.Uint64
	resolved    *atomic.Uint64
	lastRun     *atomic.Time
	lastFailure *atomic.String
	logger      *zap.Logger
}

const DefaultPeriod = time.Minute

func New(hub expirer, period time.Duration, logger *zap.Logger) *useCase {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &useCase{
		hub:         hub,
		period:      period,
		runs:        atomic.NewUint64(0),
		resolved:    atomic.NewUint64(0),
		lastRun:     atomic.NewTime(time.Time{}),
		lastFailure: atomic.NewString(""),
		logger:      logger,
	}
}

// Run sweeps once per period until ctx is done. A failed sweep is logged and
// retried on the next tick; it never stops the loop.
func (u *useCase) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.period)
	defer ticker.Stop()
	u.logger.Info("starting expiry sweeper", zap.Duration("period", u.period))
	for {
		select {
		case <-ctx.Done():
			u.logger.Info("stopping expiry sweeper")
			return nil
		case <-ticker.C:
			if _, err := u.SweepOnce(ctx); err != nil {
				u.logger.Warn("sweep failed", zap.Error(err))
			}
		}
	}
}

func (u *useCase) SweepOnce(ctx context.Context) (domain.SweepReport, error) {
	report, err := u.hub.SweepExpired(ctx)
	u.runs.Inc()
	u.lastRun.Store(time.Now())
	if err != nil {
		u.lastFailure.Store(err.Error())
		return report, err
	}
	u.lastFailure.Store("")
	u.resolved.Add(uint64(len(report.Resolved)))
	return report, nil
}

func (u *useCase) Stats() domain.SweepStats {
	return domain.SweepStats{
		Runs:        u.runs.Load(),
		Resolved:    u.resolved.Load(),
		LastRun:     u.lastRun.Load(),
		LastFailure: u.lastFailure.Load(),
	}
}
