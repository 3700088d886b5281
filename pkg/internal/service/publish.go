package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	datastorec "github.com/imap-mag/magvault/pkg/internal/storage/datastore"
	"github.com/imap-mag/magvault/pkg/metrics"
	"github.com/imap-mag/magvault/pkg/queue"
)

const (
	// maxPublishAttempts bounds the retry loop racing for a version number.
	maxPublishAttempts = 5
	// publishRetryBase is the first backoff delay; doubled per attempt
	// with jitter on top.
	publishRetryBase = 25 * time.Millisecond
)

// PublishOptions carries the optional publish metadata.
type PublishOptions struct {
	SoftwareVersion string
	Metadata        string
	Quarantine      bool
	// Source names the producing flow for the published event.
	Source string
}

// Publish moves a work file into the datastore as the next version of its
// logical key. Publishing content identical to the active latest is a no-op
// that returns the existing record with republished true.
//
// The version number is arbitrated by the composite unique index: losers of
// a concurrent allocation race see a duplicate key, recompute max+1 and try
// again. The canonical file appears via rename inside the index transaction,
// so readers either see a fully committed version or nothing.
func (s *RecordService) Publish(ctx context.Context, k key.LogicalKey, workFile, checksum string,
	opts PublishOptions,
) (*model.File, bool, error) {
	if err := k.Validate(); err != nil {
		return nil, false, err
	}

	src, err := os.Open(workFile)
	if err != nil {
		return nil, false, fmt.Errorf("open work file: %w", err)
	}
	defer src.Close()

	staged, err := s.store.Stage(ctx, src)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrStoreWrite, err)
	}

	if checksum != "" && staged.Checksum != checksum {
		s.store.Discard(staged)

		return nil, false, fmt.Errorf("%w: claimed %s, staged %s",
			ErrChecksumMismatch, checksum, staged.Checksum)
	}

	fam := repository.FamilyOf(k)

	// Idempotence: republishing the active latest content allocates nothing.
	latest, err := s.repo.Latest(ctx, fam)
	if err == nil && latest.Checksum == staged.Checksum {
		s.store.Discard(staged)
		metrics.PublishCounter.WithLabelValues(k.Level, "republished").Inc()
		s.emitRepublished(ctx, latest, opts.Source)

		return latest, true, nil
	}

	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.store.Discard(staged)

		return nil, false, err
	}

	f, err := s.publishStaged(ctx, k, fam, staged, opts)
	if err != nil {
		return nil, false, err
	}

	metrics.PublishCounter.WithLabelValues(k.Level, "published").Inc()
	metrics.PublishBytes.Observe(float64(f.Size))
	s.invalidateLatest(ctx, fam)
	s.emitPublished(ctx, f, opts)

	logger(ctx).Info().
		Str("key", k.String()).
		Int("version", f.Version).
		Str("path", f.Path).
		Msg("published")

	return f, false, nil
}

// publishStaged runs the allocation retry loop for an already staged file.
func (s *RecordService) publishStaged(ctx context.Context, k key.LogicalKey, fam repository.Family,
	staged *datastorec.StagedFile, opts PublishOptions,
) (*model.File, error) {
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		f, err := s.tryPublish(ctx, k, fam, staged, opts)
		if err == nil {
			return f, nil
		}

		if !errors.Is(err, repository.ErrVersionConflict) {
			s.store.Discard(staged)

			return nil, err
		}

		metrics.PublishCounter.WithLabelValues(k.Level, "conflict_retry").Inc()
		logger(ctx).Debug().
			Str("key", k.String()).
			Int("attempt", attempt+1).
			Msg("version conflict, retrying")

		if err := sleepBackoff(ctx, attempt); err != nil {
			s.store.Discard(staged)

			return nil, err
		}
	}

	s.store.Discard(staged)
	metrics.PublishCounter.WithLabelValues(k.Level, "failed").Inc()

	return nil, fmt.Errorf("%w after %d attempts", repository.ErrVersionConflict, maxPublishAttempts)
}

// tryPublish performs one allocation attempt: compute max+1, insert the row
// and promote the staged file inside the same transaction.
func (s *RecordService) tryPublish(ctx context.Context, k key.LogicalKey, fam repository.Family,
	staged *datastorec.StagedFile, opts PublishOptions,
) (*model.File, error) {
	version := 0

	max, ok, err := s.repo.MaxVersion(ctx, fam)
	if err != nil {
		return nil, err
	}

	if ok {
		version = max + 1
	}

	status := model.StatusValidated
	if opts.Quarantine {
		status = model.StatusQuarantined
	}

	f := &model.File{
		Mission:         k.Mission,
		Instrument:      k.Instrument,
		Level:           k.Level,
		Descriptor:      k.DescriptorPart(),
		Date:            k.Date,
		Version:         version,
		Path:            k.Path(version),
		Checksum:        staged.Checksum,
		Size:            staged.Size,
		Status:          status,
		SoftwareVersion: opts.SoftwareVersion,
		MetadataJSON:    opts.Metadata,
	}

	promoted := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, f); err != nil {
			return err
		}

		if err := s.store.Promote(staged, f.Path); err != nil {
			return fmt.Errorf("%w: %s", ErrStoreWrite, err)
		}

		promoted = true

		return nil
	})
	if err != nil {
		if promoted {
			// The rename happened but the commit did not. The canonical
			// file is now unindexed; the reconciler collects it after the
			// orphan grace window.
			logger(ctx).Error().
				Str("path", f.Path).
				Err(err).
				Msg("index drift: file promoted but index commit failed")

			return nil, fmt.Errorf("%w: %s", ErrIndexDrift, err)
		}

		return nil, err
	}

	return f, nil
}

// sleepBackoff waits out one exponential backoff step with jitter.
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := publishRetryBase << attempt
	delay += time.Duration(rand.Int63n(int64(publishRetryBase)))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *RecordService) emitPublished(ctx context.Context, f *model.File, opts PublishOptions) {
	if !s.events.Record.Published {
		return
	}

	s.publishEvent(ctx, func() error {
		return queue.PublishRecordPublished(s.mq.Publisher(), queue.RecordPublishedPayload{
			Record:          recordRef(f),
			Source:          opts.Source,
			SoftwareVersion: opts.SoftwareVersion,
		})
	}, queue.TopicRecordPublished)
}

func (s *RecordService) emitRepublished(ctx context.Context, f *model.File, source string) {
	if !s.events.Record.Republished {
		return
	}

	s.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicRecordRepublished, queue.RecordRepublishedPayload{
			Record: recordRef(f),
			Source: source,
		})
		if err != nil {
			return err
		}

		return s.mq.Publisher().Publish(queue.TopicRecordRepublished, msg)
	}, queue.TopicRecordRepublished)
}
