package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Cache stores aggregated permission sets per user. Entries have no TTL;
// they are dropped explicitly when assignments change.
type Cache interface {
	Get(ctx context.Context, userID uint) ([]string, bool, error)
	Set(ctx context.Context, userID uint, codes []string) error
	Invalidate(ctx context.Context, userID uint) error
	InvalidateAll(ctx context.Context) error
}

// memoryCache is the single-instance default.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[uint][]string
}

// NewMemoryCache creates an in-process permission cache.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[uint][]string)}
}

func (c *memoryCache) Get(_ context.Context, userID uint) ([]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codes, ok := c.entries[userID]
	if !ok {
		return nil, false, nil
	}
	out := make([]string, len(codes))
	copy(out, codes)
	return out, true, nil
}

func (c *memoryCache) Set(_ context.Context, userID uint, codes []string) error {
	stored := make([]string, len(codes))
	copy(stored, codes)
	c.mu.Lock()
	c.entries[userID] = stored
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID uint) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[uint][]string)
	c.mu.Unlock()
	return nil
}

const redisKeyPrefix = "ows:perms:"

// redisCache shares entries across instances so invalidation on one node
// is seen by all.
type redisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a Redis-backed permission cache.
func NewRedisCache(client redis.UniversalClient) Cache {
	return &redisCache{client: client}
}

func redisKey(userID uint) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

func (c *redisCache) Get(ctx context.Context, userID uint) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, redisKey(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, false, err
	}
	return codes, true, nil
}

func (c *redisCache) Set(ctx context.Context, userID uint, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKey(userID), raw, 0).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, userID uint) error {
	return c.client.Del(ctx, redisKey(userID)).Err()
}

func (c *redisCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
