package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/store"
)

// Summarizer turns a snapshot into its analytics summary.
type Summarizer interface {
	Summarize(ctx context.Context, snap store.Snapshot) Summary
}

// Direct recomputes the summary on every call.
type Direct struct{}

func (Direct) Summarize(_ context.Context, snap store.Snapshot) Summary {
	return Aggregate(snap.Applications)
}

// CachedAggregator memoizes summaries in Redis by collection version. Any
// cache failure falls back to computing the summary directly.
type CachedAggregator struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedAggregator(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedAggregator {
	return &CachedAggregator{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(userID, version string) string {
	return fmt.Sprintf("tracker:analytics:%s:%s", userID, version)
}

func (c *CachedAggregator) Summarize(ctx context.Context, snap store.Snapshot) Summary {
	key := cacheKey(snap.UserID, snap.Version)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s Summary
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		c.logger.Warn("discarding unreadable analytics cache entry", zap.String("key", key))
	case err != redis.Nil:
		c.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
	}

	s := Aggregate(snap.Applications)
	payload, err := json.Marshal(s)
	if err != nil {
		return s
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
	return s
}
