package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix = "catalog:"
	// genKey holds the catalog generation. Entries are keyed under the
	// generation current when they were written, so bumping it hides them
	// all at once and they age out through their TTL.
	genKey = cachePrefix + "gen"
)

// Cache keeps catalog reads in Redis. A nil client disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache builds a cache with ttl, defaulting to five minutes.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

func (c *Cache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return cachePrefix + strconv.FormatInt(gen, 10) + ":" + key, nil
}

// GetJSON decodes the entry for key into dst and reports whether it existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	full, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dst)
}

// SetJSON stores v for key under the current generation.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	full, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, full, data, c.ttl).Err()
}

// Invalidate starts a new generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, genKey).Err()
}
