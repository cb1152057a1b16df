package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper guards against folding the same email twice when the MQ redelivers
// an event. Backed by Redis SetNX with a TTL.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

// AcquireOnce tries to claim processing of handler+emailID. Returns true on
// first claim, false on a duplicate. When Redis is unavailable processing is
// allowed through: a rare double fold is preferable to dropping samples.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, emailID int64) bool {
	key := dedupKey(handler, emailID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("handler", handler),
				zap.Int64("email_id", emailID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated event",
			zap.String("handler", handler),
			zap.Int64("email_id", emailID),
			zap.String("dedup_key", key),
		)
	}
	return ok
}

// Release drops the claim so a requeued message can be processed again.
// Called when processing fails after the claim was taken.
func (d *Deduper) Release(ctx context.Context, handler string, emailID int64) {
	if err := d.rdb.Del(ctx, dedupKey(handler, emailID)).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Failed to release dedup claim",
			zap.String("handler", handler),
			zap.Int64("email_id", emailID),
			zap.Error(err),
		)
	}
}

func dedupKey(handler string, emailID int64) string {
	return fmt.Sprintf("dedup:%s:%d", handler, emailID)
}
