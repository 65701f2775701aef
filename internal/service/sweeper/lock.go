package sweeper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunLock is a redis SetNX day lock. When redis is down the run proceeds:
// the sweep itself is idempotent, so a duplicate pass is harmless.
type RunLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRunLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RunLock {
	return &RunLock{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *RunLock) TryAcquire(ctx context.Context, day string) bool {
	ok, err := l.rdb.SetNX(ctx, "sweep:lock:"+day, 1, l.ttl).Result()
	if err != nil {
		l.logger.Warn("Sweep lock check failed, proceeding anyway",
			zap.String("day", day),
			zap.Error(err),
		)
		return true
	}
	return ok
}
