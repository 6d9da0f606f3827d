package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"disaster-platform/internal/metrics"
	"disaster-platform/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache with Redis. Expiry is delegated to Redis PX,
// which already implements lazy deletion server-side, and persistence
// (AOF/RDB) carries cache state across process restarts.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.From(ctx).Warn("cache get failed", "key", key, "err", err)
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return v, true
}

func (s *RedisStore) Put(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.rdb.Set(ctx, key, []byte(value), ttl).Err(); err != nil {
		// Failing to cache must not fail the request that computed the value.
		logger.From(ctx).Warn("cache put failed", "key", key, "err", err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logger.From(ctx).Warn("cache delete failed", "key", key, "err", err)
	}
}
