package storage

import (
	"context"

	datastorec "github.com/imap-mag/magvault/pkg/internal/storage/datastore"
)

type contextKey string

const managerKey contextKey = "storageManager"

// WithManager stores the Manager in the context.
func WithManager(ctx context.Context, mgr *Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManagerFromContext retrieves the Manager from the context.
func GetManagerFromContext(ctx context.Context) *Manager {
	if mgr, ok := ctx.Value(managerKey).(*Manager); ok {
		return mgr
	}

	return nil
}

// GetStoreClientFromContext retrieves the datastore client from the context.
func GetStoreClientFromContext(ctx context.Context) *datastorec.Client {
	if mgr := GetManagerFromContext(ctx); mgr != nil {
		return mgr.Store
	}

	return nil
}
