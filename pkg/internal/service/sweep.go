package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/metrics"
	"github.com/imap-mag/magvault/pkg/queue"
)

// RetentionService retires superseded versions under the configured policy.
type RetentionService struct {
	records *RecordService
	cfg     configs.RetentionConfig
}

// NewRetentionService builds a RetentionService from the storage manager
// carried in the context.
func NewRetentionService(c context.Context) *RetentionService {
	return &RetentionService{
		records: NewRecordService(c),
		cfg:     configs.GetConfig().Retention,
	}
}

// Sweep runs the configured retention tasks. req.Task restricts the run to
// one named task; req.DryRun forces a dry run on top of the config flag.
// The global operations cap spans all tasks of one run.
func (s *RetentionService) Sweep(ctx context.Context, req types.SweepRequest) (*types.SweepResponse, error) {
	tasks, err := s.selectTasks(req.Task)
	if err != nil {
		return nil, err
	}

	dryRun := req.DryRun || s.cfg.DryRun
	budget := s.cfg.MaxOperations
	resp := &types.SweepResponse{Results: make([]types.SweepTaskResult, 0, len(tasks))}

	for _, task := range tasks {
		result, err := s.runTask(ctx, task, dryRun, &budget)
		if err != nil {
			s.emitSweepFailed(ctx, task.Name, err)

			return nil, fmt.Errorf("retention task %s: %w", task.Name, err)
		}

		resp.Results = append(resp.Results, result)
		s.emitSweepCompleted(ctx, result)

		if result.Truncated {
			logger(ctx).Warn().
				Str("task", task.Name).
				Int("max_operations", s.cfg.MaxOperations).
				Msg("sweep hit the operations cap, exiting early")

			break
		}
	}

	return resp, nil
}

func (s *RetentionService) selectTasks(name string) ([]configs.RetentionTask, error) {
	if name == "" {
		return s.cfg.Tasks, nil
	}

	for _, task := range s.cfg.Tasks {
		if task.Name == name {
			return []configs.RetentionTask{task}, nil
		}
	}

	return nil, fmt.Errorf("unknown retention task %q", name)
}

// runTask sweeps every family matched by one task, oldest versions first.
func (s *RetentionService) runTask(ctx context.Context, task configs.RetentionTask,
	dryRun bool, budget *int,
) (types.SweepTaskResult, error) {
	result := types.SweepTaskResult{Task: task.Name, DryRun: dryRun}

	// Only families with more active versions than the task keeps can have
	// sweep candidates at all.
	families, err := s.records.repo.FamiliesExceeding(ctx, repository.FamilyFilter{}, task.KeepLatest)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()

	for _, fam := range families {
		if !taskMatches(task, fam) {
			continue
		}

		candidates, err := s.records.repo.SweepCandidates(ctx, fam, task.KeepLatest)
		if err != nil {
			return result, err
		}

		for i := range candidates {
			candidate := &candidates[i]
			result.Examined++

			// Too young for the age rule, not an error and not a grace skip.
			if task.OlderThan > 0 && candidate.CreatedAt.After(now.Add(-task.OlderThan)) {
				continue
			}

			// Records inside the grace window may belong to an in-flight
			// publish and are never touched.
			if candidate.CreatedAt.After(now.Add(-s.cfg.GraceWindow)) {
				result.SkippedGrace++
				metrics.SweepCounter.WithLabelValues(task.Name, "skipped_grace").Inc()

				continue
			}

			if *budget <= 0 {
				result.Truncated = true

				return result, nil
			}

			*budget--

			if err := s.retire(ctx, task, fam, candidate, dryRun, &result); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// retire performs (or simulates) one sweep action.
func (s *RetentionService) retire(ctx context.Context, task configs.RetentionTask,
	fam repository.Family, candidate *model.File, dryRun bool, result *types.SweepTaskResult,
) error {
	if dryRun {
		metrics.SweepCounter.WithLabelValues(task.Name, "dry_run").Inc()
		logger(ctx).Info().
			Str("task", task.Name).
			Str("path", candidate.Path).
			Str("mode", string(task.Mode)).
			Msg("dry run, would retire")

		if task.Mode == configs.CleanupModeArchive {
			result.Archived++
		} else {
			result.SoftDeleted++
		}

		return nil
	}

	if task.Mode == configs.CleanupModeArchive {
		if err := s.archive(ctx, task, candidate); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if err := s.records.repo.MarkDeleted(ctx, candidate.ID, now); err != nil {
		return err
	}

	candidate.DeletionDate = &now
	s.records.invalidateLatest(ctx, fam)
	s.records.emitSoftDeleted(ctx, candidate, task.Name)

	if task.Mode == configs.CleanupModeArchive {
		result.Archived++
		metrics.SweepCounter.WithLabelValues(task.Name, "archived").Inc()
	} else {
		result.SoftDeleted++
		metrics.SweepCounter.WithLabelValues(task.Name, "soft_deleted").Inc()
	}

	return nil
}

// archive copies a version into the archive mirror before it is retired.
func (s *RetentionService) archive(ctx context.Context, task configs.RetentionTask, candidate *model.File) error {
	mirror := s.records.store.Archive()
	if mirror == nil {
		return ErrArchiveDisabled
	}

	local := filepath.Join(s.records.store.Root(), filepath.FromSlash(candidate.Path))
	if _, err := mirror.Put(ctx, local, candidate.Path); err != nil {
		return fmt.Errorf("archive %s: %w", candidate.Path, err)
	}

	s.emitArchived(ctx, candidate, mirror.Bucket())

	return nil
}

// taskMatches applies the task patterns to one family. Empty patterns match
// everything; syntax is filepath.Match.
func taskMatches(task configs.RetentionTask, fam repository.Family) bool {
	return patternMatch(task.Instrument, fam.Instrument) &&
		patternMatch(task.Level, fam.Level) &&
		patternMatch(task.Descriptor, fam.Descriptor)
}

func patternMatch(pattern, value string) bool {
	if pattern == "" {
		return true
	}

	ok, err := filepath.Match(pattern, value)

	return err == nil && ok
}

func (s *RetentionService) emitSweepCompleted(ctx context.Context, result types.SweepTaskResult) {
	if !s.records.events.Record.SweepCompleted {
		return
	}

	s.records.publishEvent(ctx, func() error {
		return queue.PublishSweepCompleted(s.records.mq.Publisher(), queue.SweepCompletedPayload{
			Task:        result.Task,
			Examined:    result.Examined,
			SoftDeleted: result.SoftDeleted,
			Archived:    result.Archived,
			Skipped:     result.SkippedGrace,
			DryRun:      result.DryRun,
			Truncated:   result.Truncated,
		})
	}, queue.TopicSweepCompleted)
}

func (s *RetentionService) emitSweepFailed(ctx context.Context, task string, cause error) {
	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicSweepFailed, queue.SweepFailedPayload{
			Task:  task,
			Error: cause.Error(),
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicSweepFailed, msg)
	}, queue.TopicSweepFailed)
}

func (s *RetentionService) emitArchived(ctx context.Context, f *model.File, bucket string) {
	if !s.records.events.Record.Archived {
		return
	}

	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicRecordArchived, queue.RecordArchivedPayload{
			Record:     recordRef(f),
			Bucket:     bucket,
			ArchiveKey: f.Path,
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicRecordArchived, msg)
	}, queue.TopicRecordArchived)
}
