// Package jobs registers the scheduled background tasks of the store.
package jobs

import (
	"context"
	"fmt"

	ctxPkg "github.com/imap-mag/magvault/pkg/context"
	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/storage"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/log"
	"github.com/imap-mag/magvault/pkg/scheduler"
)

// RegisterCronJobs wires the recurring maintenance tasks:
//   - 02:30 every day: retention sweep over all configured tasks
//   - 04:15 every Sunday: store reconciliation (orphan collection)
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// Inject the storage manager so services built inside a job can reach it.
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if err := sched.AddCron(JobRetentionSweep, CronRetentionSweep, func(ctx context.Context) {
		runRetentionSweep(ctx)
	}, baseCtx); err != nil {
		return fmt.Errorf("register %s: %w", JobRetentionSweep, err)
	}

	if err := sched.AddCron(JobReconcileOrphans, CronReconcileOrphans, func(ctx context.Context) {
		runReconcile(ctx)
	}, baseCtx); err != nil {
		return fmt.Errorf("register %s: %w", JobReconcileOrphans, err)
	}

	return nil
}

// runRetentionSweep runs every configured retention task once.
func runRetentionSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobRetentionSweep).Logger()

	svc := service.NewRetentionService(ctx)

	resp, err := svc.Sweep(ctx, types.SweepRequest{})
	if err != nil {
		l.Error().Err(err).Msg("retention sweep failed")
		return
	}

	for _, r := range resp.Results {
		l.Info().Str("task", r.Task).
			Int("examined", r.Examined).
			Int("soft_deleted", r.SoftDeleted).
			Int("archived", r.Archived).
			Int("skipped_grace", r.SkippedGrace).
			Bool("truncated", r.Truncated).
			Msg("retention task finished")
	}
}

// runReconcile scans the store for orphans and reports missing files.
func runReconcile(ctx context.Context) {
	l := log.Logger().With().Str("job", JobReconcileOrphans).Logger()

	svc := service.NewReconcileService(ctx)

	resp, err := svc.Reconcile(ctx, types.ReconcileRequest{})
	if err != nil {
		l.Error().Err(err).Msg("reconcile failed")
		return
	}

	l.Info().Int("scanned", resp.Scanned).
		Int("orphans", resp.Orphans).
		Int("collected", resp.Collected).
		Int("missing", len(resp.Missing)).
		Msg("reconcile finished")
}
