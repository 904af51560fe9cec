package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "cortex:cache"
	redisVersionKey = "cortex:cache:version"
)

// Redis is the shared backend for multi-replica deployments. Entries expire
// through per-key TTL; Clear bumps a version counter so every existing entry
// falls out of the namespace at once instead of being scanned and deleted.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Ping verifies connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, r.entryKey(ctx, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "redis cache read failed", "error", err)
		}
		return nil, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.entryKey(ctx, key), value, r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "redis cache write failed", "error", err)
	}
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Incr(ctx, redisVersionKey).Err(); err != nil {
		return fmt.Errorf("bumping cache version: %w", err)
	}
	return nil
}

// entryKey namespaces key under the current version. A missing or unreadable
// version counts as version 0.
func (r *Redis) entryKey(ctx context.Context, key string) string {
	version, err := r.client.Get(ctx, redisVersionKey).Int64()
	if err != nil && err != redis.Nil {
		slog.WarnContext(ctx, "redis cache version read failed", "error", err)
	}
	return fmt.Sprintf("%s:%d:%s", redisKeyPrefix, version, key)
}
