package jobs

// Job name constants, kept in one place for registration and admin routes.
const (
	JobRetentionSweep   = "retention.sweep"
	JobReconcileOrphans = "reconcile.orphans"
)

// Cron expressions for the background jobs.
const (
	CronRetentionSweep   = "30 2 * * *"
	CronReconcileOrphans = "15 4 * * 0"
)
