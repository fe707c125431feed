package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options selects the Redis server. Addr accepts either host:port or a
// redis:// URL.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection with a ping. On
// ping failure the client is still returned alongside the error so callers
// can keep it and let the connection recover later.
func NewClient(opts *Options) (*redis.Client, error) {
	ropts, err := redis.ParseURL(opts.Addr)
	if err != nil {
		ropts = &redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	ropts.PoolSize = 20

	client := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("redis ping %s: %w", ropts.Addr, err)
	}
	return client, nil
}
