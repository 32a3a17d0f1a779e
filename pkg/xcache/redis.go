package xcache

import (
	"context"
	"time"

	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/questx-lab/prizeengine/pkg/xredis"
)

type redisCache[T any] struct {
	prefix string
	ttl    time.Duration
	client xredis.Client
}

// NewRedis returns a cache shared by every process connected to the same
// redis. Values are stored as json under prefix:key.
func NewRedis[T any](client xredis.Client, prefix string, ttl time.Duration) *redisCache[T] {
	return &redisCache[T]{prefix: prefix, ttl: ttl, client: client}
}

func (c *redisCache[T]) key(key string) string {
	return c.prefix + ":" + key
}

func (c *redisCache[T]) Get(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	var cached T
	err := c.client.GetObj(ctx, c.key(key), &cached)
	if err == nil {
		return cached, nil
	}

	if !xredis.IsNil(err) {
		xcontext.Logger(ctx).Warnf("Cannot get %s from redis: %v", c.key(key), err)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.client.SetObj(ctx, c.key(key), value, c.ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot set %s to redis: %v", c.key(key), err)
	}

	return value, nil
}

func (c *redisCache[T]) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key))
}
