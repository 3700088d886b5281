package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imap-mag/magvault/pkg/internal/repository"
)

func TestSoftDeleteExclusion(t *testing.T) {
	ctx := context.Background()
	s := newTestRecordService(t)
	k := testKey()

	mustPublish(t, s, k, "v0")
	mustPublish(t, s, k, "v1")

	_, err := s.SoftDelete(ctx, k, 1, "manual")
	require.NoError(t, err)

	latest, err := s.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Version, "latest falls back to the next active version")

	history, err := s.History(ctx, k)
	require.NoError(t, err)
	require.Len(t, history, 2, "history keeps soft deleted versions")
	assert.True(t, history[1].Deleted())
	assert.False(t, history[0].Deleted())
}

func TestSoftDeleteTwiceFails(t *testing.T) {
	ctx := context.Background()
	s := newTestRecordService(t)
	k := testKey()

	mustPublish(t, s, k, "v0")

	_, err := s.SoftDelete(ctx, k, 0, "manual")
	require.NoError(t, err)

	_, err = s.SoftDelete(ctx, k, 0, "manual")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUndeleteRestoresVisibility(t *testing.T) {
	ctx := context.Background()
	s := newTestRecordService(t)
	k := testKey()

	mustPublish(t, s, k, "v0")
	mustPublish(t, s, k, "v1")

	_, err := s.SoftDelete(ctx, k, 1, "manual")
	require.NoError(t, err)

	restored, err := s.Undelete(ctx, k, 1)
	require.NoError(t, err)
	assert.False(t, restored.Deleted())

	latest, err := s.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
}

func TestDeletedVersionNumberIsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestRecordService(t)
	k := testKey()

	mustPublish(t, s, k, "v0")
	mustPublish(t, s, k, "v1")

	_, err := s.SoftDelete(ctx, k, 1, "manual")
	require.NoError(t, err)

	f := mustPublish(t, s, k, "v2")
	assert.Equal(t, 2, f.Version, "soft deleted versions keep their number")
}
