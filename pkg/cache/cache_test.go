package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/imap-mag/magvault/pkg/cache"
)

type latestEntry struct {
	Path     string `json:"path"`
	Version  int    `json:"version"`
	Checksum string `json:"checksum"`
}

// mockKVStore is an in-memory KVStore for cache tests.
type mockKVStore struct {
	data map[string][]byte
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{
		data: make(map[string][]byte),
	}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, exists := m.data[key]; exists {
		return value, nil
	}

	return nil, fmt.Errorf("key not found")
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockKVStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(ctx context.Context, key string) (bool, error) {
	_, exists := m.data[key]
	return exists, nil
}

func (m *mockKVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *mockKVStore) Close() error {
	return nil
}

func TestNewCache(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)

	if c == nil {
		t.Fatal("NewCache returned nil")
	}
}

func TestCache_GetSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	_, err := cache.Get[latestEntry](ctx, c, "nonexistent")
	if err == nil {
		t.Error("Expected error for nonexistent key")
	}

	entry := latestEntry{Path: "l2/2025/05/02/imap_mag_l2_norm-mago_20250502_v003.cdf", Version: 3, Checksum: "ab12"}

	err = cache.Set(ctx, c, "latest:imap/mag/l2/norm-mago/20250502", entry, 0)
	if err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	got, err := cache.Get[latestEntry](ctx, c, "latest:imap/mag/l2/norm-mago/20250502")
	if err != nil {
		t.Fatalf("Failed to get cache: %v", err)
	}

	if got != entry {
		t.Errorf("Retrieved entry %+v does not match original %+v", got, entry)
	}
}

func TestCache_Delete(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	entry := latestEntry{Path: "l1/2025/05/02/imap_mag_l1_norm-magi_20250502_v001.cdf", Version: 1}

	if err := cache.Set(ctx, c, "latest:a", entry, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	if err := c.Delete(ctx, "latest:a"); err != nil {
		t.Fatalf("Failed to delete cache: %v", err)
	}

	if _, err := cache.Get[latestEntry](ctx, c, "latest:a"); err == nil {
		t.Error("Expected error after delete")
	}
}

func TestCache_Exists(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "latest:b")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	if exists {
		t.Error("Expected key to be absent")
	}

	if err := cache.Set(ctx, c, "latest:b", latestEntry{Version: 2}, 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	exists, err = c.Exists(ctx, "latest:b")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	if !exists {
		t.Error("Expected key to be present")
	}
}

func TestCache_GetOrSet(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	calls := 0
	getter := func() (latestEntry, error) {
		calls++
		return latestEntry{Path: "l2/x", Version: 7}, nil
	}

	got, err := cache.GetOrSet(ctx, c, "latest:c", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if got.Version != 7 {
		t.Errorf("Expected version 7, got %d", got.Version)
	}

	// second call served from cache
	_, err = cache.GetOrSet(ctx, c, "latest:c", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected getter to run once, ran %d times", calls)
	}
}

func TestCache_GetOrSet_GetterError(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	wantErr := errors.New("index unavailable")

	_, err := cache.GetOrSet(ctx, c, "latest:d", func() (latestEntry, error) {
		return latestEntry{}, wantErr
	}, time.Minute)
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected getter error, got %v", err)
	}
}

func TestCache_Clear(t *testing.T) {
	mockStore := newMockKVStore()
	c := cache.NewCache(mockStore)
	ctx := context.Background()

	for i := range 3 {
		key := fmt.Sprintf("latest:%d", i)
		if err := cache.Set(ctx, c, key, latestEntry{Version: i + 1}, 0); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if len(mockStore.data) != 0 {
		t.Errorf("Expected empty store after Clear, got %d keys", len(mockStore.data))
	}
}
