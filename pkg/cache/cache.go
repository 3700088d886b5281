// Package cache provides a generic, type safe cache on top of the KV store.
//
// Values are serialized with sonic JSON and may carry a TTL. A cache miss is
// not an error for GetOrSet; it simply falls through to the getter.
//
// Basic usage:
//
//	c := cache.NewCache(kvStore)
//
//	rec, err := cache.Get[FileRecord](ctx, c, "latest:imap/mag/l2/norm/20250502")
//
//	rec, err := cache.GetOrSet(ctx, c, key, func() (FileRecord, error) {
//	    return repo.Latest(ctx, lk)
//	}, time.Minute)
//
// Thread safety follows the underlying KV store; Redis and NATS KV are safe
// for concurrent use.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/imap-mag/magvault/pkg/internal/storage/kv"
)

// Cache wraps a KV store with typed JSON serialization.
type Cache struct {
	kvStore kv.KVStore
}

// NewCache creates a cache instance.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// Get fetches and decodes a cached value.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set encodes and stores a value with the given TTL.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete removes a cache key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists reports whether a cache key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet returns the cached value or computes and stores it.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return zero, err
	}

	if setErr := Set(ctx, c, key, value, ttl); setErr != nil {
		// caching failed, the value is still good
		return value, nil
	}

	return value, nil
}

// Clear removes every key the backing store reports.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, "*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
