package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imap-mag/magvault/pkg/internal/repository"
)

func TestPublishAssignsGaplessVersions(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	for i := 0; i < 3; i++ {
		f := mustPublish(t, s, k, fmt.Sprintf("content-%d", i))
		assert.Equal(t, i, f.Version, "versions start at 0 and grow without gaps")
	}

	history, err := s.History(context.Background(), k)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestPublishPlacesFileAtCanonicalPath(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	f := mustPublish(t, s, k, "payload")

	assert.Equal(t, "l1b/2025/05/02/imap_mag_l1b_norm-mago_20250502_v000.cdf", f.Path)

	data, err := os.ReadFile(filepath.Join(s.store.Root(), filepath.FromSlash(f.Path)))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// Staging left nothing behind.
	entries, err := os.ReadDir(filepath.Join(s.store.Root(), ".staging"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishIdempotentRepublish(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	first := mustPublish(t, s, k, "same content")

	path, sum := writeWorkFile(t, "same content")

	second, republished, err := s.Publish(context.Background(), k, path, sum, PublishOptions{})
	require.NoError(t, err)
	assert.True(t, republished)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Path, second.Path)

	history, err := s.History(context.Background(), k)
	require.NoError(t, err)
	assert.Len(t, history, 1, "republishing identical content allocates nothing")
}

func TestPublishChecksumMismatch(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	path, _ := writeWorkFile(t, "actual content")

	_, _, err := s.Publish(context.Background(), k, path,
		"0000000000000000000000000000000000000000000000000000000000000000", PublishOptions{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, err = s.Latest(context.Background(), k)
	assert.ErrorIs(t, err, repository.ErrNotFound, "nothing may be indexed after a mismatch")
}

func TestPublishRejectsInvalidKey(t *testing.T) {
	s := newTestRecordService(t)

	k := testKey()
	k.Instrument = ""

	path, sum := writeWorkFile(t, "content")

	_, _, err := s.Publish(context.Background(), k, path, sum, PublishOptions{})
	require.Error(t, err)
}

func TestPublishSupersededContentCreatesNewVersion(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	mustPublish(t, s, k, "first run")
	f := mustPublish(t, s, k, "second run, different bytes")

	assert.Equal(t, 1, f.Version)

	latest, err := s.Latest(context.Background(), k)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
}

func TestPublishConcurrentDistinctContent(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	const workers = 8

	var wg sync.WaitGroup

	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			path, sum := writeWorkFile(t, fmt.Sprintf("worker-%d", i))
			_, _, errs[i] = s.Publish(context.Background(), k, path, sum, PublishOptions{})
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	history, err := s.History(context.Background(), k)
	require.NoError(t, err)
	require.Len(t, history, workers)

	for i, f := range history {
		assert.Equal(t, i, f.Version, "contiguous versions with no duplicates")
	}
}

func TestPublishQuarantineStatus(t *testing.T) {
	s := newTestRecordService(t)
	k := testKey()

	path, sum := writeWorkFile(t, "suspect content")

	f, _, err := s.Publish(context.Background(), k, path, sum, PublishOptions{Quarantine: true})
	require.NoError(t, err)
	assert.Equal(t, "quarantined", string(f.Status))
}
