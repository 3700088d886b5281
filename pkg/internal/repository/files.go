// Package repository implements the file index queries over gorm.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
)

var (
	// ErrNotFound is returned when no matching index row exists.
	ErrNotFound = errors.New("file record not found")
	// ErrVersionConflict is returned when an insert loses the race for a
	// version number. Callers recompute the version and retry.
	ErrVersionConflict = errors.New("version already assigned")
)

// Family identifies one version lineage: every column of the composite
// unique index except the version itself.
type Family struct {
	Mission    string
	Instrument string
	Level      string
	Descriptor string
	Date       time.Time
}

// FamilyOf extracts the family from a logical key. The mode is folded into
// the descriptor, matching the indexed form.
func FamilyOf(k key.LogicalKey) Family {
	return Family{
		Mission:    k.Mission,
		Instrument: k.Instrument,
		Level:      k.Level,
		Descriptor: k.DescriptorPart(),
		Date:       k.Date,
	}
}

// FamilyFilter selects families for retention sweeps. Empty fields match
// everything; values containing '%' are applied as SQL LIKE patterns.
type FamilyFilter struct {
	Instrument string
	Level      string
	Descriptor string
}

// Files is the repository over the files table.
type Files struct {
	db *gorm.DB
}

// NewFiles creates a Files repository.
func NewFiles(db *gorm.DB) *Files {
	return &Files{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Files) WithTx(tx *gorm.DB) *Files {
	return &Files{db: tx}
}

// familyScope narrows a query to one family.
func familyScope(fam Family) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"mission = ? AND instrument = ? AND level = ? AND descriptor = ? AND date = ?",
			fam.Mission, fam.Instrument, fam.Level, fam.Descriptor, fam.Date,
		)
	}
}

// active narrows a query to rows that are not soft deleted.
func active(db *gorm.DB) *gorm.DB {
	return db.Where("deletion_date IS NULL")
}

// Insert stores a new version row. A duplicate on the composite key index
// is reported as ErrVersionConflict so the publisher can retry.
func (r *Files) Insert(ctx context.Context, f *model.File) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrVersionConflict
		}

		return err
	}

	return nil
}

// MaxVersion returns the highest version ever assigned in a family,
// soft deleted rows included. ok is false when the family has no rows.
func (r *Files) MaxVersion(ctx context.Context, fam Family) (version int, ok bool, err error) {
	var row struct {
		Max *int
	}

	err = r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(familyScope(fam)).
		Select("MAX(version) AS max").
		Scan(&row).Error
	if err != nil {
		return 0, false, err
	}

	if row.Max == nil {
		return 0, false, nil
	}

	return *row.Max, true, nil
}

// Latest returns the highest active version in a family.
func (r *Files) Latest(ctx context.Context, fam Family) (*model.File, error) {
	var f model.File

	err := r.db.WithContext(ctx).
		Scopes(familyScope(fam), active).
		Order("version DESC").
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &f, nil
}

// History returns every version in a family, soft deleted included,
// ordered by ascending version.
func (r *Files) History(ctx context.Context, fam Family) ([]model.File, error) {
	var files []model.File

	err := r.db.WithContext(ctx).
		Scopes(familyScope(fam)).
		Order("version ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Get returns one specific version, soft deleted included.
func (r *Files) Get(ctx context.Context, fam Family, version int) (*model.File, error) {
	var f model.File

	err := r.db.WithContext(ctx).
		Scopes(familyScope(fam)).
		Where("version = ?", version).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &f, nil
}

// GetByPath returns the row owning a canonical datastore path.
func (r *Files) GetByPath(ctx context.Context, path string) (*model.File, error) {
	var f model.File

	err := r.db.WithContext(ctx).Where("path = ?", path).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &f, nil
}

// MarkDeleted soft deletes a row by stamping deletion_date. Already
// deleted rows are left untouched.
func (r *Files) MarkDeleted(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.File{}).
		Where("id = ? AND deletion_date IS NULL", id).
		Update("deletion_date", at)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Undelete clears deletion_date on one version and returns the restored row.
func (r *Files) Undelete(ctx context.Context, fam Family, version int) (*model.File, error) {
	res := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(familyScope(fam)).
		Where("version = ? AND deletion_date IS NOT NULL", version).
		Update("deletion_date", nil)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.Get(ctx, fam, version)
}

// matchColumn applies one filter value to a column. Empty matches all,
// '%' switches to LIKE.
func matchColumn(db *gorm.DB, column, value string) *gorm.DB {
	switch {
	case value == "":
		return db
	case strings.Contains(value, "%"):
		return db.Where(column+" LIKE ?", value)
	default:
		return db.Where(column+" = ?", value)
	}
}

func filterScope(filter FamilyFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = matchColumn(db, "instrument", filter.Instrument)
		db = matchColumn(db, "level", filter.Level)
		db = matchColumn(db, "descriptor", filter.Descriptor)

		return db
	}
}

// DistinctFamilies lists the families matching a filter.
func (r *Files) DistinctFamilies(ctx context.Context, filter FamilyFilter) ([]Family, error) {
	var families []Family

	err := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(filterScope(filter)).
		Distinct("mission", "instrument", "level", "descriptor", "date").
		Order("mission, instrument, level, descriptor, date").
		Scan(&families).Error
	if err != nil {
		return nil, err
	}

	return families, nil
}

// FamiliesExceeding lists the families matching a filter that have more
// than keep active versions.
func (r *Files) FamiliesExceeding(ctx context.Context, filter FamilyFilter, keep int) ([]Family, error) {
	var families []Family

	err := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(filterScope(filter), active).
		Select("mission", "instrument", "level", "descriptor", "date").
		Group("mission, instrument, level, descriptor, date").
		Having("COUNT(*) > ?", keep).
		Order("mission, instrument, level, descriptor, date").
		Scan(&families).Error
	if err != nil {
		return nil, err
	}

	return families, nil
}

// SweepCandidates returns the active versions of a family that a sweep may
// retire, oldest first. The newest keep versions are excluded; keep is
// clamped to 1 so the latest active version always survives.
func (r *Files) SweepCandidates(ctx context.Context, fam Family, keep int) ([]model.File, error) {
	if keep < 1 {
		keep = 1
	}

	var files []model.File

	err := r.db.WithContext(ctx).
		Scopes(familyScope(fam), active).
		Order("version ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}

	if len(files) <= keep {
		return nil, nil
	}

	return files[:len(files)-keep], nil
}

// PathsUnder returns every indexed path with the given prefix, soft deleted
// rows included, mapped to the owning row id. The reconciler diffs this
// against the filesystem walk.
func (r *Files) PathsUnder(ctx context.Context, prefix string) (map[string]uint, error) {
	var rows []struct {
		ID   uint
		Path string
	}

	q := r.db.WithContext(ctx).Model(&model.File{}).Select("id", "path")
	if prefix != "" {
		q = q.Where("path LIKE ?", prefix+"%")
	}

	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	paths := make(map[string]uint, len(rows))
	for _, row := range rows {
		paths[row.Path] = row.ID
	}

	return paths, nil
}

// CountActive returns the number of active rows in a family.
func (r *Files) CountActive(ctx context.Context, fam Family) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(familyScope(fam), active).
		Count(&n).Error

	return n, err
}
