package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper guards each schedule's reminder against double dispatch (queue
// redelivery) and doubles as the best-effort cancel: marking a schedule
// handled before the job fires makes the worker skip it.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func dedupKey(scheduleID int) string {
	return fmt.Sprintf("reminder:handled:%d", scheduleID)
}

// AcquireOnce returns true the first time it is called for a schedule.
// When redis is unavailable the reminder goes through: a rare duplicate
// beats a silently dropped reminder.
func (d *Deduper) AcquireOnce(ctx context.Context, scheduleID int) bool {
	ok, err := d.rdb.SetNX(ctx, dedupKey(scheduleID), 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing dispatch",
			zap.Int("schedule_id", scheduleID),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicate reminder",
			zap.Int("schedule_id", scheduleID),
		)
	}
	return ok
}

// MarkHandled claims the schedule's reminder slot so a pending job no-ops
// when it fires.
func (d *Deduper) MarkHandled(ctx context.Context, scheduleID int) error {
	return d.rdb.SetNX(ctx, dedupKey(scheduleID), 1, d.ttl).Err()
}
