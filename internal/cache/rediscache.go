package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/teamloop/feedbackhub/internal/queue/redisclient"
)

// RedisCache holds rendered feedback-list responses. Entries are short-lived
// and deleted on every write to the underlying records, so a stale read
// window is bounded by the write path, not the TTL.
type RedisCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewRedisCache(client *redisclient.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}

	b, err := c.client.Raw().Get(ctx, key).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Raw().Set(ctx, key, val, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Raw().Del(ctx, keys...).Err()
}
