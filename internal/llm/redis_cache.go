package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "finlens:llm:"

// redisCache shares cached replies between service instances.
type redisCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// newRedisCache connects to addr, which may be host:port or a redis:// URL.
func newRedisCache(addr string, ttl time.Duration, logger *slog.Logger) *redisCache {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}
	if ttl == 0 {
		ttl = time.Hour
	}

	return &redisCache{
		client: redis.NewClient(opt),
		logger: logger,
		ttl:    ttl,
	}
}

// Ping checks connectivity.
func (r *redisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the cached value, treating any error as a miss.
func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value with the configured TTL.
func (r *redisCache) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache set failed", "key", key, "error", err)
	}
}

// Close closes the connection pool.
func (r *redisCache) Close() error {
	return r.client.Close()
}
