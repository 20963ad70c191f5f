package cache

import (
	"context"
	"time"

	"ai-companion-demo/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache Store backed by a Redis instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedis creates a Redis-backed store. The URL may be a plain host:port or a
// redis:// URL.
func NewRedis(url string, ttl time.Duration, log *logger.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Fall back to treating the value as an address
		opts = &redis.Options{Addr: url}
	}

	return &Redis{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn("redis get failed", "key", key, "error", err.Error())
		}
		return nil, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.log.Warn("redis set failed", "key", key, "error", err.Error())
	}
}
