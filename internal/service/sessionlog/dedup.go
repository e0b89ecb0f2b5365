package sessionlog

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sessionlog:"

// Deduper remembers which transcripts were already forwarded.
type Deduper interface {
	// FirstSeen records key and reports whether it was new.
	FirstSeen(ctx context.Context, key string) (bool, error)
	// Forget drops key so a failed forward can be retried.
	Forget(ctx context.Context, key string) error
}

// NoopDeduper treats every transcript as new.
type NoopDeduper struct{}

func (NoopDeduper) FirstSeen(context.Context, string) (bool, error) {
	return true, nil
}

func (NoopDeduper) Forget(context.Context, string) error {
	return nil
}

// RedisDeduper stores forwarded transcript keys with a TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper connects to redisURL and verifies the connection.
func NewRedisDeduper(ctx context.Context, redisURL string, ttl time.Duration) (*RedisDeduper, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDeduperWithClient(client, ttl), nil
}

// NewRedisDeduperWithClient wraps an existing client.
func NewRedisDeduperWithClient(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record session log key: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduper) Forget(ctx context.Context, key string) error {
	return d.client.Del(ctx, keyPrefix+key).Err()
}

// Close releases the Redis connection pool.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
