package service

import (
	"context"
	"fmt"
	"time"

	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	"github.com/imap-mag/magvault/pkg/queue"
)

// SoftDelete hides one version from latest and history queries. The file
// stays on disk and the version number stays taken, so the delete is fully
// reversible with Undelete.
func (s *RecordService) SoftDelete(ctx context.Context, k key.LogicalKey, version int, reason string) (*model.File, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	fam := repository.FamilyOf(k)

	f, err := s.repo.Get(ctx, fam, version)
	if err != nil {
		return nil, err
	}

	if f.Deleted() {
		return nil, fmt.Errorf("version %d of %s: %w", version, k.String(), repository.ErrNotFound)
	}

	now := time.Now().UTC()
	if err := s.repo.MarkDeleted(ctx, f.ID, now); err != nil {
		return nil, err
	}

	f.DeletionDate = &now
	s.invalidateLatest(ctx, fam)
	s.emitSoftDeleted(ctx, f, reason)

	logger(ctx).Info().
		Str("key", k.String()).
		Int("version", version).
		Str("reason", reason).
		Msg("soft deleted")

	return f, nil
}

// Undelete makes a soft deleted version visible again.
func (s *RecordService) Undelete(ctx context.Context, k key.LogicalKey, version int) (*model.File, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	fam := repository.FamilyOf(k)

	f, err := s.repo.Undelete(ctx, fam, version)
	if err != nil {
		return nil, err
	}

	s.invalidateLatest(ctx, fam)
	s.emitRestored(ctx, f)

	logger(ctx).Info().
		Str("key", k.String()).
		Int("version", version).
		Msg("restored")

	return f, nil
}

func (s *RecordService) emitSoftDeleted(ctx context.Context, f *model.File, reason string) {
	if !s.events.Record.SoftDeleted {
		return
	}

	s.publishEvent(ctx, func() error {
		return queue.PublishRecordSoftDeleted(s.mq.Publisher(), queue.RecordSoftDeletedPayload{
			Record: recordRef(f),
			Reason: reason,
		})
	}, queue.TopicRecordSoftDeleted)
}

func (s *RecordService) emitRestored(ctx context.Context, f *model.File) {
	if !s.events.Record.Restored {
		return
	}

	s.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicRecordRestored, queue.RecordRestoredPayload{
			Record: recordRef(f),
		})
		if err != nil {
			return err
		}

		return s.mq.Publisher().Publish(queue.TopicRecordRestored, msg)
	}, queue.TopicRecordRestored)
}
