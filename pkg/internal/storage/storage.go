// Package storage aggregates the storage backends used by the service:
// the relational file index, the datastore filesystem, the message queue
// and the KV cache.
//
// Example:
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // handle error
//	}
//
//	store := mgr.GetStoreClient()
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	datastorec "github.com/imap-mag/magvault/pkg/internal/storage/datastore"
	dbc "github.com/imap-mag/magvault/pkg/internal/storage/db"
	kvc "github.com/imap-mag/magvault/pkg/internal/storage/kv"
	mqc "github.com/imap-mag/magvault/pkg/internal/storage/mq"
	nlog "github.com/imap-mag/magvault/pkg/log"
)

// Manager aggregates all storage resources.
type Manager struct {
	DB    *dbc.Client
	Store *datastorec.Client
	KV    *kvc.Client
	MQ    *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init initializes the default storage manager from the global config.
// Repeated calls return the already initialized instance.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		m := &Manager{}

		// DB
		if dbi, e := dbc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.DB = dbi
		}

		// Datastore filesystem
		if sti, e := datastorec.New(ctx); e != nil {
			err = e

			return
		} else {
			m.Store = sti
		}

		// KV
		if kvi, e := kvc.NewKVClient(ctx); e != nil {
			err = e

			return
		} else {
			m.KV = kvi
		}

		// MQ
		if mqi, e := mqc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient returns the file index DB client.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetStoreClient returns the datastore filesystem client.
func (m *Manager) GetStoreClient() *datastorec.Client {
	return m.Store
}

// GetKVClient returns the KV client.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient returns the MQ client.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close releases all storage resources.
func (m *Manager) Close() error {
	var firstErr error

	if m.MQ != nil {
		if err := m.MQ.Close(); err != nil {
			firstErr = err
		}
	}

	if m.KV != nil {
		if err := m.KV.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if m.Store != nil {
		if err := m.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
