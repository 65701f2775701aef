// Package sweeper runs the daily pass that marks stale planned schedules
// as skipped.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"habitloop/pkg/metrics"
)

type Store interface {
	MarkMissedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Locker gates a run so overlapping sweepers (multiple runner instances)
// do at most one pass per day.
type Locker interface {
	TryAcquire(ctx context.Context, day string) bool
}

// Sweeper flips planned schedules dated before today to skipped. Completed
// schedules and anything dated today or later are never touched, and the
// underlying update only matches planned rows, so re-running is a no-op.
type Sweeper struct {
	schedules Store
	lock      Locker
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a sweeper. lock may be nil when a single runner instance is
// guaranteed.
func New(schedules Store, lock Locker, log *zap.Logger) *Sweeper {
	return &Sweeper{
		schedules: schedules,
		lock:      lock,
		now:       time.Now,
		logger:    log,
	}
}

// Sweep performs one pass and returns how many schedules were skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.lock != nil && !s.lock.TryAcquire(ctx, today.Format("2006-01-02")) {
		s.logger.Info("Sweep already ran today, skipping")
		return 0, nil
	}

	count, err := s.schedules.MarkMissedBefore(ctx, today)
	if err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
		return 0, err
	}

	metrics.SchedulesSwept.Add(float64(count))
	s.logger.Info("Sweep completed",
		zap.Time("cutoff", today),
		zap.Int64("skipped", count),
	)
	return count, nil
}
