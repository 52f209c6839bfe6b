package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const metricsKey = "dashboard:metrics"

// MetricsCache keeps the dashboard headline rollup in Redis for a short
// window. Writes that change the underlying figures call Invalidate.
type MetricsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMetricsCache(rdb *redis.Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{rdb: rdb, ttl: ttl}
}

// Get loads cached metrics into dest. Returns false on miss or any cache
// error; callers fall through to the database.
func (c *MetricsCache) Get(ctx context.Context, dest interface{}) bool {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return false
	}

	payload, err := c.rdb.Get(ctx, metricsKey).Bytes()
	if err != nil {
		return false
	}

	return json.Unmarshal(payload, dest) == nil
}

// Set stores metrics with the configured TTL, best effort.
func (c *MetricsCache) Set(ctx context.Context, value interface{}) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	c.rdb.Set(ctx, metricsKey, payload, c.ttl)
}

// Invalidate drops the cached metrics, best effort.
func (c *MetricsCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}

	c.rdb.Del(ctx, metricsKey)
}
