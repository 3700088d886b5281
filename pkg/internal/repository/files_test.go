package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/imap-mag/magvault/pkg/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.File{}))

	return db
}

func testFamily() Family {
	return Family{
		Mission:    "imap",
		Instrument: "mag",
		Level:      "l1b",
		Descriptor: "norm-mago",
		Date:       time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func insertVersion(t *testing.T, r *Files, fam Family, version int) *model.File {
	t.Helper()

	f := &model.File{
		Mission:    fam.Mission,
		Instrument: fam.Instrument,
		Level:      fam.Level,
		Descriptor: fam.Descriptor,
		Date:       fam.Date,
		Version:    version,
		Path: fmt.Sprintf("%s/2025/05/02/%s_%s_%s_%s_20250502_v%03d.cdf",
			fam.Level, fam.Mission, fam.Instrument, fam.Level, fam.Descriptor, version),
		Checksum: fmt.Sprintf("%064d", version),
		Size:     128,
		Status:   model.StatusValidated,
	}
	require.NoError(t, r.Insert(context.Background(), f))

	return f
}

func TestInsertDuplicateVersionConflicts(t *testing.T) {
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	first := insertVersion(t, r, fam, 1)

	dup := *first
	dup.ID = 0
	dup.Path = "l1b/2025/05/02/other_path_v001.cdf"

	err := r.Insert(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMaxVersionIncludesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	_, ok, err := r.MaxVersion(ctx, fam)
	require.NoError(t, err)
	assert.False(t, ok, "empty family must report no versions")

	insertVersion(t, r, fam, 1)
	v2 := insertVersion(t, r, fam, 2)

	require.NoError(t, r.MarkDeleted(ctx, v2.ID, time.Now().UTC()))

	max, ok, err := r.MaxVersion(ctx, fam)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, max, "soft deleted versions still occupy their number")
}

func TestLatestSkipsSoftDeleted(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	insertVersion(t, r, fam, 1)
	v2 := insertVersion(t, r, fam, 2)

	latest, err := r.Latest(ctx, fam)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	require.NoError(t, r.MarkDeleted(ctx, v2.ID, time.Now().UTC()))

	latest, err = r.Latest(ctx, fam)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	require.NoError(t, r.MarkDeleted(ctx, latest.ID, time.Now().UTC()))

	_, err = r.Latest(ctx, fam)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryAscendingIncludesDeleted(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	v1 := insertVersion(t, r, fam, 1)
	insertVersion(t, r, fam, 2)
	insertVersion(t, r, fam, 3)
	require.NoError(t, r.MarkDeleted(ctx, v1.ID, time.Now().UTC()))

	history, err := r.History(ctx, fam)
	require.NoError(t, err)
	require.Len(t, history, 3)

	for i, f := range history {
		assert.Equal(t, i+1, f.Version)
	}

	assert.True(t, history[0].Deleted())
	assert.False(t, history[1].Deleted())
}

func TestUndelete(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	v1 := insertVersion(t, r, fam, 1)
	require.NoError(t, r.MarkDeleted(ctx, v1.ID, time.Now().UTC()))

	restored, err := r.Undelete(ctx, fam, 1)
	require.NoError(t, err)
	assert.False(t, restored.Deleted())

	// A second undelete finds nothing to restore.
	_, err = r.Undelete(ctx, fam, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepCandidatesKeepsLatest(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))
	fam := testFamily()

	for v := 1; v <= 5; v++ {
		insertVersion(t, r, fam, v)
	}

	candidates, err := r.SweepCandidates(ctx, fam, 2)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, 1, candidates[0].Version)
	assert.Equal(t, 3, candidates[2].Version)

	// keep below 1 is clamped so the last active version survives.
	candidates, err = r.SweepCandidates(ctx, fam, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 4)
	assert.Equal(t, 4, candidates[3].Version)
}

func TestFamiliesExceedingAndFilter(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))

	famA := testFamily()
	famB := testFamily()
	famB.Descriptor = "burst-magi"

	insertVersion(t, r, famA, 1)
	insertVersion(t, r, famA, 2)
	insertVersion(t, r, famB, 1)

	families, err := r.FamiliesExceeding(ctx, FamilyFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, famA.Descriptor, families[0].Descriptor)

	families, err = r.FamiliesExceeding(ctx, FamilyFilter{Descriptor: "burst%"}, 0)
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, famB.Descriptor, families[0].Descriptor)
}

func TestPathsUnder(t *testing.T) {
	ctx := context.Background()
	r := NewFiles(newTestDB(t))

	famA := testFamily()
	famB := testFamily()
	famB.Level = "l2"

	a := insertVersion(t, r, famA, 1)
	insertVersion(t, r, famB, 1)

	paths, err := r.PathsUnder(ctx, "")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	paths, err = r.PathsUnder(ctx, "l1b/")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, a.ID, paths[a.Path])
}
