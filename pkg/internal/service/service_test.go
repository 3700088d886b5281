package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	datastorec "github.com/imap-mag/magvault/pkg/internal/storage/datastore"
)

// newTestRecordService wires a RecordService against an in-memory index and
// a datastore rooted in a temp dir. Events and caching stay off.
func newTestRecordService(t *testing.T) *RecordService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.File{}))

	// Every connection to :memory: would get its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	storeCfg := configs.StoreConfig{
		Root:     t.TempDir(),
		TempDir:  configs.DefaultStoreTempDir,
		DirPerm:  configs.DefaultStoreDirPerm,
		FilePerm: configs.DefaultStoreFilePerm,
	}

	store, err := datastorec.NewWithConfig(context.Background(), &storeCfg)
	require.NoError(t, err)

	return &RecordService{
		db:    db,
		repo:  repository.NewFiles(db),
		store: store,
	}
}

func testKey() key.LogicalKey {
	return key.LogicalKey{
		Mission:    "imap",
		Instrument: "mag",
		Level:      "l1b",
		Descriptor: "norm",
		Date:       time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		Mode:       "mago",
		Extension:  "cdf",
	}
}

// writeWorkFile drops content into a work area file and returns its path
// and SHA-256.
func writeWorkFile(t *testing.T, content string) (path, checksum string) {
	t.Helper()

	path = filepath.Join(t.TempDir(), "work.cdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sum := sha256.Sum256([]byte(content))

	return path, hex.EncodeToString(sum[:])
}

// mustPublish publishes content and asserts it created a new version.
func mustPublish(t *testing.T, s *RecordService, k key.LogicalKey, content string) *model.File {
	t.Helper()

	path, sum := writeWorkFile(t, content)

	f, republished, err := s.Publish(context.Background(), k, path, sum, PublishOptions{})
	require.NoError(t, err)
	require.False(t, republished)

	return f
}
