package xcache

import "context"

// LoadFunc reads the value from the source of truth when the cache misses.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Cache is a read-through cache. Entries live for the TTL given to the
// constructor. Writers must call Invalidate after changing the source of
// truth.
type Cache[T any] interface {
	Get(ctx context.Context, key string, load LoadFunc[T]) (T, error)
	Invalidate(ctx context.Context, key string) error
}
