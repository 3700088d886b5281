// Package kv provides the key-value store interface and its backends.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/imap-mag/magvault/pkg/configs"
)

type Client struct {
	KVStore
}

// KVStore is the key-value store interface.
type KVStore interface {
	// Get returns the value for a key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value with an optional TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists keys matching a pattern, mainly for debugging.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close releases the backend connection.
	Close() error
}

// KVType identifies a key-value backend.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory builds a KVStore from its backend config.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

// kvFactories maps KV types to factories; backends register from init.
var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory registers a KV factory.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes lists the KV backends compiled into this binary.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	return types
}

// NewKVStore creates a KVStore of the given type.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient creates the KV client from the application configuration.
func NewKVClient(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().KV

	var backendCfg any

	switch KVType(cfg.Type) {
	case KVTypeRedis:
		backendCfg = &cfg.Redis
	case KVTypeNATS:
		backendCfg = &cfg.NATS
	case KVTypeGroupcache:
		backendCfg = &cfg.Groupcache
	case KVTypeMemory:
		backendCfg = nil
	}

	store, err := NewKVStore(ctx, KVType(cfg.Type), backendCfg)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store}, nil
}
