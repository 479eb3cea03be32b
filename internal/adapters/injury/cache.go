package injury

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/matchup/internal/domain/model"
)

// Entry is a cached injury state and when it was fetched.
type Entry struct {
	State     model.InjuryState `json:"state"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Cache keeps the last successful fetch. Freshness is decided by the
// Provider from FetchedAt, so caches keep entries past the freshness window.
type Cache interface {
	Get(ctx context.Context) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	entry Entry
	ok    bool
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry, c.ok, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
	c.ok = true
	return nil
}

// RedisCache shares the injury state between replicas as one JSON value.
type RedisCache struct {
	client    redis.Cmdable
	key       string
	retention time.Duration
}

// DefaultRedisKey is the key RedisCache writes unless told otherwise.
const DefaultRedisKey = "matchup:injuries:current"

// NewRedisCache stores entries under key for retention. A zero retention
// keeps them until overwritten.
func NewRedisCache(client redis.Cmdable, key string, retention time.Duration) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{client: client, key: key, retention: retention}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context) (Entry, bool, error) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return e, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, b, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

// ConnectRedis opens a client for addr and pings it.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}
