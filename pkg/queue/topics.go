// Package queue defines the topic constants used by publishers and
// subscribers.
package queue

// Topic naming scheme: mv.<domain>.<action>[.<state>], stable and backwards
// compatible.
// Domains: record (file index), retention (sweeps), reconcile (index drift).
// States: requested, completed, failed.

const (
	// File index domain.
	TopicRecordPublished   = "mv.record.published"    // a new version was written and indexed
	TopicRecordRepublished = "mv.record.republished"  // identical content republished, no new version
	TopicRecordSoftDeleted = "mv.record.soft_deleted" // version hidden from latest/history queries
	TopicRecordRestored    = "mv.record.restored"     // soft deleted version made visible again
	TopicRecordArchived    = "mv.record.archived"     // version copied to the archive mirror
	TopicRecordQuarantined = "mv.record.quarantined"  // version flagged as failed validation

	// Retention domain.
	TopicSweepRequested = "mv.retention.sweep.requested"
	TopicSweepCompleted = "mv.retention.sweep.completed"
	TopicSweepFailed    = "mv.retention.sweep.failed"

	// Reconciliation domain.
	TopicReconcileRequested = "mv.reconcile.requested"
	TopicOrphanFound        = "mv.reconcile.orphan.found"
	TopicOrphanCollected    = "mv.reconcile.orphan.collected"
	TopicReconcileCompleted = "mv.reconcile.completed"
	TopicReconcileFailed    = "mv.reconcile.failed"
)

// Topic groups for batch subscription.
var (
	RecordTopics = []string{
		TopicRecordPublished, TopicRecordRepublished,
		TopicRecordSoftDeleted, TopicRecordRestored,
		TopicRecordArchived, TopicRecordQuarantined,
	}

	RetentionTopics = []string{
		TopicSweepRequested, TopicSweepCompleted, TopicSweepFailed,
	}

	ReconcileTopics = []string{
		TopicReconcileRequested, TopicOrphanFound,
		TopicOrphanCollected, TopicReconcileCompleted,
		TopicReconcileFailed,
	}
)
