package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/types"
)

func newTestRetentionService(t *testing.T, cfg configs.RetentionConfig) *RetentionService {
	t.Helper()

	if cfg.MaxOperations == 0 {
		cfg.MaxOperations = configs.DefaultMaxFileOperations
	}

	return &RetentionService{
		records: newTestRecordService(t),
		cfg:     cfg,
	}
}

func keepLatestTask(keep int) configs.RetentionTask {
	return configs.RetentionTask{
		Name:       "keep-latest",
		KeepLatest: keep,
		Mode:       configs.CleanupModeSoftDelete,
	}
}

func TestSweepRetiresOldestExcessVersions(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{keepLatestTask(2)},
	})
	k := testKey()

	mustPublish(t, s.records, k, "v0")
	mustPublish(t, s.records, k, "v1")
	mustPublish(t, s.records, k, "v2")
	mustPublish(t, s.records, k, "v3")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].SoftDeleted)

	history, err := s.records.History(ctx, k)
	require.NoError(t, err)
	assert.True(t, history[0].Deleted())
	assert.True(t, history[1].Deleted())
	assert.False(t, history[2].Deleted())
	assert.False(t, history[3].Deleted())

	latest, err := s.records.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
}

func TestSweepAfterSupersede(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{keepLatestTask(1)},
	})
	k := testKey()

	mustPublish(t, s.records, k, "original")

	// Same bytes again: a no-op republish, no new version.
	path, sum := writeWorkFile(t, "original")
	f, republished, err := s.records.Publish(ctx, k, path, sum, PublishOptions{})
	require.NoError(t, err)
	require.True(t, republished)
	assert.Equal(t, 0, f.Version)

	mustPublish(t, s.records, k, "revised")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Results[0].SoftDeleted)

	latest, err := s.records.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	// A second pass finds nothing left to retire.
	resp, err = s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0, resp.Results[0].SoftDeleted)
	assert.Equal(t, 0, resp.Results[0].Examined)
}

func TestSweepNeverDeletesLastActiveVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{keepLatestTask(0)},
	})
	k := testKey()

	mustPublish(t, s.records, k, "only version")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Results[0].SoftDeleted, "a family keeps at least one visible latest")

	latest, err := s.records.Latest(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Version)
}

func TestSweepGraceWindowProtectsRecentVersions(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks:       []configs.RetentionTask{keepLatestTask(1)},
		GraceWindow: time.Hour,
	})
	k := testKey()

	mustPublish(t, s.records, k, "v0")
	mustPublish(t, s.records, k, "v1")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Results[0].SoftDeleted)
	assert.Equal(t, 1, resp.Results[0].SkippedGrace)
}

func TestSweepOlderThanRule(t *testing.T) {
	ctx := context.Background()

	task := keepLatestTask(1)
	task.OlderThan = 24 * time.Hour

	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{task},
	})
	k := testKey()

	mustPublish(t, s.records, k, "v0")
	mustPublish(t, s.records, k, "v1")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results[0].Examined)
	assert.Zero(t, resp.Results[0].SoftDeleted, "versions younger than older_than stay")
}

func TestSweepDryRunTouchesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{keepLatestTask(1)},
	})
	k := testKey()

	mustPublish(t, s.records, k, "v0")
	mustPublish(t, s.records, k, "v1")

	resp, err := s.Sweep(ctx, types.SweepRequest{DryRun: true})
	require.NoError(t, err)
	assert.True(t, resp.Results[0].DryRun)
	assert.Equal(t, 1, resp.Results[0].SoftDeleted, "dry run reports would-be actions")

	history, err := s.records.History(ctx, k)
	require.NoError(t, err)

	for _, f := range history {
		assert.False(t, f.Deleted())
	}
}

func TestSweepPatternMatchesFamilies(t *testing.T) {
	ctx := context.Background()

	task := keepLatestTask(1)
	task.Descriptor = "norm-*"

	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{task},
	})

	matched := testKey()
	unmatched := testKey()
	unmatched.Mode = ""
	unmatched.Descriptor = "burst"

	mustPublish(t, s.records, matched, "m0")
	mustPublish(t, s.records, matched, "m1")
	mustPublish(t, s.records, unmatched, "u0")
	mustPublish(t, s.records, unmatched, "u1")

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results[0].SoftDeleted)

	history, err := s.records.History(ctx, unmatched)
	require.NoError(t, err)

	for _, f := range history {
		assert.False(t, f.Deleted(), "families outside the pattern stay untouched")
	}
}

func TestSweepOperationsCap(t *testing.T) {
	ctx := context.Background()
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks:         []configs.RetentionTask{keepLatestTask(1)},
		MaxOperations: 2,
	})
	k := testKey()

	for _, content := range []string{"v0", "v1", "v2", "v3", "v4"} {
		mustPublish(t, s.records, k, content)
	}

	resp, err := s.Sweep(ctx, types.SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Results[0].SoftDeleted)
	assert.True(t, resp.Results[0].Truncated)
}

func TestSweepUnknownTaskName(t *testing.T) {
	s := newTestRetentionService(t, configs.RetentionConfig{
		Tasks: []configs.RetentionTask{keepLatestTask(1)},
	})

	_, err := s.Sweep(context.Background(), types.SweepRequest{Task: "no-such-task"})
	require.Error(t, err)
}
