package service

import (
	"context"
	"io/fs"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imap-mag/magvault/pkg/configs"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/metrics"
	"github.com/imap-mag/magvault/pkg/queue"
)

// existenceCheckers bounds the parallel stat calls against the index rows.
const existenceCheckers = 8

// ReconcileService diffs the datastore tree against the file index and
// collects files the index does not know about.
type ReconcileService struct {
	records *RecordService
	cfg     configs.RetentionConfig
}

// NewReconcileService builds a ReconcileService from the storage manager
// carried in the context.
func NewReconcileService(c context.Context) *ReconcileService {
	return &ReconcileService{
		records: NewRecordService(c),
		cfg:     configs.GetConfig().Retention,
	}
}

// Reconcile walks the store root and compares it with the index. Unindexed
// files older than the orphan grace window move to the orphan directory.
// Indexed paths missing on disk are reported as drift and left alone.
func (s *ReconcileService) Reconcile(ctx context.Context, req types.ReconcileRequest) (*types.ReconcileResponse, error) {
	indexed, err := s.records.repo.PathsUnder(ctx, "")
	if err != nil {
		return nil, err
	}

	resp := &types.ReconcileResponse{DryRun: req.DryRun}
	cutoff := time.Now().UTC().Add(-s.cfg.OrphanGraceWindow)

	var orphans []string

	walkErr := s.records.store.WalkFiles(ctx, func(rel string, info fs.FileInfo) error {
		resp.Scanned++

		if _, ok := indexed[rel]; ok {
			return nil
		}

		// Files younger than the grace window may be a publish whose
		// index commit has not landed yet.
		if info.ModTime().After(cutoff) {
			return nil
		}

		orphans = append(orphans, rel)
		metrics.OrphanCounter.WithLabelValues("found").Inc()
		s.emitOrphanFound(ctx, rel, info)

		return nil
	})
	if walkErr != nil {
		s.emitReconcileFailed(ctx, walkErr)

		return nil, walkErr
	}

	resp.Orphans = len(orphans)

	for _, rel := range orphans {
		if req.DryRun {
			logger(ctx).Info().Str("path", rel).Msg("dry run, would collect orphan")

			continue
		}

		collectedTo, err := s.records.store.CollectOrphan(rel)
		if err != nil {
			logger(ctx).Error().Err(err).Str("path", rel).Msg("orphan collection failed")

			continue
		}

		resp.Collected++
		metrics.OrphanCounter.WithLabelValues("collected").Inc()
		s.emitOrphanCollected(ctx, rel, collectedTo)
	}

	missing, err := s.findMissing(ctx, indexed)
	if err != nil {
		s.emitReconcileFailed(ctx, err)

		return nil, err
	}

	resp.Missing = missing

	for _, rel := range missing {
		logger(ctx).Error().Str("path", rel).Msg("index drift: indexed file missing on disk")
	}

	s.emitReconcileCompleted(ctx, resp)

	logger(ctx).Info().
		Int("scanned", resp.Scanned).
		Int("orphans", resp.Orphans).
		Int("collected", resp.Collected).
		Int("missing", len(resp.Missing)).
		Bool("dry_run", resp.DryRun).
		Msg("reconciliation finished")

	return resp, nil
}

// findMissing stats every indexed path concurrently and returns the ones
// without a file behind them.
func (s *ReconcileService) findMissing(ctx context.Context, indexed map[string]uint) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(existenceCheckers)

	var (
		mu      sync.Mutex
		missing []string
	)

	for rel := range indexed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			exists, err := s.records.store.Exists(rel)
			if err != nil {
				return err
			}

			if !exists {
				mu.Lock()
				missing = append(missing, rel)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(missing)

	return missing, nil
}

func (s *ReconcileService) emitOrphanFound(ctx context.Context, rel string, info fs.FileInfo) {
	if !s.records.events.Record.OrphanCollected {
		return
	}

	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicOrphanFound, queue.OrphanFoundPayload{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicOrphanFound, msg)
	}, queue.TopicOrphanFound)
}

func (s *ReconcileService) emitOrphanCollected(ctx context.Context, rel, collectedTo string) {
	if !s.records.events.Record.OrphanCollected {
		return
	}

	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicOrphanCollected, queue.OrphanCollectedPayload{
			Path:        rel,
			CollectedTo: collectedTo,
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicOrphanCollected, msg)
	}, queue.TopicOrphanCollected)
}

func (s *ReconcileService) emitReconcileCompleted(ctx context.Context, resp *types.ReconcileResponse) {
	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicReconcileCompleted, queue.ReconcileCompletedPayload{
			Scanned:   resp.Scanned,
			Orphans:   resp.Orphans,
			Collected: resp.Collected,
			Missing:   len(resp.Missing),
			DryRun:    resp.DryRun,
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicReconcileCompleted, msg)
	}, queue.TopicReconcileCompleted)
}

func (s *ReconcileService) emitReconcileFailed(ctx context.Context, cause error) {
	s.records.publishEvent(ctx, func() error {
		msg, err := queue.NewWatermillMessage(queue.TopicReconcileFailed, queue.ReconcileFailedPayload{
			Error: cause.Error(),
		})
		if err != nil {
			return err
		}

		return s.records.mq.Publisher().Publish(queue.TopicReconcileFailed, msg)
	}, queue.TopicReconcileFailed)
}
