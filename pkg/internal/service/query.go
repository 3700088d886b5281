package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/imap-mag/magvault/pkg/cache"
	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
)

// latestCacheTTL bounds how stale a cached latest lookup may get. Writes
// invalidate eagerly; the TTL only covers invalidation failures.
const latestCacheTTL = 5 * time.Minute

// Latest returns the active record with the highest version for a key.
// Reads go through the kv cache when one is configured.
func (s *RecordService) Latest(ctx context.Context, k key.LogicalKey) (*model.File, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	fam := repository.FamilyOf(k)

	if s.cache == nil {
		return s.repo.Latest(ctx, fam)
	}

	f, err := cache.GetOrSet(ctx, s.cache, latestCacheKey(fam), func() (model.File, error) {
		latest, err := s.repo.Latest(ctx, fam)
		if err != nil {
			return model.File{}, err
		}

		return *latest, nil
	}, latestCacheTTL)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// History returns every version of a key ascending, soft deleted included.
func (s *RecordService) History(ctx context.Context, k key.LogicalKey) ([]model.File, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	return s.repo.History(ctx, repository.FamilyOf(k))
}

// Get returns one specific version, soft deleted included.
func (s *RecordService) Get(ctx context.Context, k key.LogicalKey, version int) (*model.File, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, repository.FamilyOf(k), version)
}

// Families lists the distinct logical keys known to the index, optionally
// narrowed by a filter. Soft deleted versions still anchor their family.
func (s *RecordService) Families(ctx context.Context, filter repository.FamilyFilter) ([]repository.Family, error) {
	return s.repo.DistinctFamilies(ctx, filter)
}

// ActiveCount returns how many versions of a key are currently visible.
func (s *RecordService) ActiveCount(ctx context.Context, k key.LogicalKey) (int64, error) {
	if err := k.Validate(); err != nil {
		return 0, err
	}

	return s.repo.CountActive(ctx, repository.FamilyOf(k))
}

// Resolve maps a canonical datastore path back to its index row, soft
// deleted included. Useful when all an operator has is a file on disk.
func (s *RecordService) Resolve(ctx context.Context, path string) (*model.File, error) {
	return s.repo.GetByPath(ctx, path)
}

// OpenVersion returns the record and an open handle on its canonical file.
// The caller closes the file.
func (s *RecordService) OpenVersion(ctx context.Context, k key.LogicalKey, version int) (*model.File, *os.File, error) {
	f, err := s.Get(ctx, k, version)
	if err != nil {
		return nil, nil, err
	}

	r, err := s.store.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger(ctx).Error().Str("path", f.Path).Msg("index drift: indexed file missing on disk")

			return nil, nil, ErrIndexDrift
		}

		return nil, nil, err
	}

	return f, r, nil
}
