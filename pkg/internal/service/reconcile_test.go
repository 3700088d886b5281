package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/types"
)

func newTestReconcileService(t *testing.T) *ReconcileService {
	t.Helper()

	return &ReconcileService{
		records: newTestRecordService(t),
		cfg: configs.RetentionConfig{
			OrphanGraceWindow: time.Hour,
		},
	}
}

// plantStray writes an unindexed file into the store tree with an old mtime.
func plantStray(t *testing.T, s *ReconcileService, rel string, age time.Duration) {
	t.Helper()

	abs := filepath.Join(s.records.store.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte("stray"), 0o644))

	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(abs, old, old))
}

func TestReconcileCollectsAgedOrphans(t *testing.T) {
	ctx := context.Background()
	s := newTestReconcileService(t)
	k := testKey()

	published := mustPublish(t, s.records, k, "indexed content")
	plantStray(t, s, "l2/2025/01/01/imap_mag_l2_stray_20250101_v000.cdf", 2*time.Hour)

	resp, err := s.Reconcile(ctx, types.ReconcileRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Scanned)
	assert.Equal(t, 1, resp.Orphans)
	assert.Equal(t, 1, resp.Collected)
	assert.Empty(t, resp.Missing)

	// The stray moved into the orphan directory, keeping its layout.
	_, err = os.Stat(filepath.Join(s.records.store.Root(),
		".orphaned", "l2", "2025", "01", "01", "imap_mag_l2_stray_20250101_v000.cdf"))
	assert.NoError(t, err)

	// The indexed file stayed put.
	exists, err := s.records.store.Exists(published.Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReconcileDryRunLeavesOrphansInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestReconcileService(t)

	plantStray(t, s, "l2/2025/01/01/stray_file_v000.cdf", 2*time.Hour)

	resp, err := s.Reconcile(ctx, types.ReconcileRequest{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Orphans)
	assert.Zero(t, resp.Collected)

	exists, err := s.records.store.Exists("l2/2025/01/01/stray_file_v000.cdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReconcileGraceWindowProtectsFreshFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestReconcileService(t)

	// A file this young could be a publish whose commit is in flight.
	plantStray(t, s, "l2/2025/01/01/fresh_file_v000.cdf", 0)

	resp, err := s.Reconcile(ctx, types.ReconcileRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Orphans)
	assert.Zero(t, resp.Collected)
}

func TestReconcileReportsMissingIndexedFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestReconcileService(t)
	k := testKey()

	published := mustPublish(t, s.records, k, "will disappear")
	require.NoError(t, os.Remove(
		filepath.Join(s.records.store.Root(), filepath.FromSlash(published.Path))))

	resp, err := s.Reconcile(ctx, types.ReconcileRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Missing, 1)
	assert.Equal(t, published.Path, resp.Missing[0])

	// Drift is reported, never repaired: the row is still queryable.
	latest, err := s.records.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, published.Version, latest.Version)
}
