package xcache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync"
	"golang.org/x/sync/singleflight"
)

type memoryEntry[T any] struct {
	value     T
	expiredAt time.Time
}

type memoryCache[T any] struct {
	ttl     time.Duration
	entries *xsync.MapOf[string, memoryEntry[T]]
	flight  singleflight.Group
	now     func() time.Time
}

// NewMemory returns a process-local cache. Concurrent misses of the same key
// share one load.
func NewMemory[T any](ttl time.Duration) *memoryCache[T] {
	return &memoryCache[T]{
		ttl:     ttl,
		entries: xsync.NewMapOf[memoryEntry[T]](),
		now:     time.Now,
	}
}

func (c *memoryCache[T]) Get(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	if e, ok := c.entries.Load(key); ok && c.now().Before(e.expiredAt) {
		return e.value, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.entries.Store(key, memoryEntry[T]{value: value, expiredAt: c.now().Add(c.ttl)})
		}

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

func (c *memoryCache[T]) Invalidate(ctx context.Context, key string) error {
	c.flight.Forget(key)
	c.entries.Delete(key)
	return nil
}
