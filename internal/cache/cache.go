package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no entry exists for the code.
var ErrMiss = errors.New("cache miss")

// DefaultTTL bounds how long a cached mapping may live before it self-evicts.
const DefaultTTL = time.Hour

const keyPrefix = "url:"

// Cache accelerates code→URL lookups. It is never the source of truth:
// callers must treat every error from Get as a miss and every error from Set
// or Invalidate as a dropped write, degrading to the durable store.
type Cache interface {
	Get(ctx context.Context, code string) (string, error)
	Set(ctx context.Context, code, target string, ttl time.Duration) error
	Invalidate(ctx context.Context, code string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedis wraps a go-redis client in the Cache interface.
func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func key(code string) string {
	return keyPrefix + code
}

func (c *redisCache) Get(ctx context.Context, code string) (string, error) {
	target, err := c.client.Get(ctx, key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get %q: %w", code, err)
	}
	return target, nil
}

func (c *redisCache) Set(ctx context.Context, code, target string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := c.client.Set(ctx, key(code), target, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", code, err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", code, err)
	}
	return nil
}
