package xcache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/questx-lab/prizeengine/pkg/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_Get(t *testing.T) {
	store := map[string][]byte{}
	client := &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			b, ok := store[key]
			if !ok {
				return redis.Nil
			}

			return json.Unmarshal(b, v)
		},
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			require.Equal(t, 5*time.Second, ttl)
			b, err := json.Marshal(obj)
			store[key] = b
			return err
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			for _, k := range key {
				delete(store, k)
			}
			return nil
		},
	}

	c := NewRedis[bool](client, "setting", 5*time.Second)
	value := true
	load := func(context.Context) (bool, error) { return value, nil }

	v, err := c.Get(context.Background(), "redemption_enabled", load)
	require.NoError(t, err)
	require.True(t, v)
	require.Contains(t, store, "setting:redemption_enabled")

	value = false
	v, err = c.Get(context.Background(), "redemption_enabled", load)
	require.NoError(t, err)
	require.True(t, v)

	require.NoError(t, c.Invalidate(context.Background(), "redemption_enabled"))
	v, err = c.Get(context.Background(), "redemption_enabled", load)
	require.NoError(t, err)
	require.False(t, v)
}
