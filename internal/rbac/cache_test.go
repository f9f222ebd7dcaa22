package rbac

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheLifecycle(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, 1, []string{"contents.read"}))
	codes, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"contents.read"}, codes)

	// Mutating the returned slice must not affect the stored entry.
	codes[0] = "mutated"
	codes, ok, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"contents.read"}, codes)

	require.NoError(t, cache.Invalidate(ctx, 1))
	_, ok, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, 2, []string{"a"}))
	require.NoError(t, cache.Set(ctx, 3, []string{"b"}))
	require.NoError(t, cache.InvalidateAll(ctx))
	_, ok, _ = cache.Get(ctx, 2)
	require.False(t, ok)
	_, ok, _ = cache.Get(ctx, 3)
	require.False(t, ok)
}

func newTestRedisCache(t *testing.T) (Cache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), srv, client
}

func TestRedisCacheLifecycle(t *testing.T) {
	cache, _, _ := newTestRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, 1, []string{"contents.read", "products.read"}))
	codes, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"contents.read", "products.read"}, codes)

	require.NoError(t, cache.Invalidate(ctx, 1))
	_, ok, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheStoresEmptySet(t *testing.T) {
	cache, _, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 9, nil))
	codes, ok, err := cache.Get(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok, "an empty set is still a cache hit")
	require.Empty(t, codes)
}

func TestRedisCacheInvalidateAllScopesToPrefix(t *testing.T) {
	cache, srv, client := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, []string{"a"}))
	require.NoError(t, cache.Set(ctx, 2, []string{"b"}))
	require.NoError(t, client.Set(ctx, "unrelated:key", "keep", 0).Err())

	require.NoError(t, cache.InvalidateAll(ctx))

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = cache.Get(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, srv.Exists("unrelated:key"))
}
