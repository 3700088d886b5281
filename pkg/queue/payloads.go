package queue

import "time"

// EventHeader carries the metadata common to every event.
type EventHeader struct {
	// Topic duplicates the broker subject so dumped messages stay
	// traceable offline.
	Topic string `json:"topic"`
	// TraceID is the distributed trace or correlation id.
	TraceID string `json:"trace_id,omitempty"`
	// Producer is the producing service or node.
	Producer string `json:"producer,omitempty"`
	// OccurredAt is the event time (UTC, RFC3339).
	OccurredAt time.Time `json:"occurred_at"`
	// Version is the payload schema version.
	Version string `json:"version,omitempty"`
}

// Message is the unified envelope, Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- file index domain --------------------------

// RecordRef identifies a file version in the index and the store.
type RecordRef struct {
	Mission    string `json:"mission"`
	Instrument string `json:"instrument"`
	Level      string `json:"level"`
	Descriptor string `json:"descriptor"`
	Date       string `json:"date"` // YYYY-MM-DD
	Mode       string `json:"mode,omitempty"`
	Version    int    `json:"version"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// RecordPublishedPayload signals a new version written and indexed.
type RecordPublishedPayload struct {
	Record RecordRef `json:"record"`
	// Source is the business context that triggered the publish, such as
	// a processing flow name.
	Source          string `json:"source,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
}

// RecordRepublishedPayload signals an idempotent no-op republish.
type RecordRepublishedPayload struct {
	Record RecordRef `json:"record"`
	Source string    `json:"source,omitempty"`
}

// RecordSoftDeletedPayload signals a version hidden from queries.
type RecordSoftDeletedPayload struct {
	Record RecordRef `json:"record"`
	Reason string    `json:"reason,omitempty"` // retention task name or manual
}

// RecordRestoredPayload signals a soft deleted version made visible again.
type RecordRestoredPayload struct {
	Record RecordRef `json:"record"`
}

// RecordArchivedPayload signals a version copied to the archive mirror.
type RecordArchivedPayload struct {
	Record     RecordRef `json:"record"`
	Bucket     string    `json:"bucket"`
	ArchiveKey string    `json:"archive_key"`
}

// -------------------------- retention domain --------------------------

// SweepRequestedPayload asks for a retention sweep run.
type SweepRequestedPayload struct {
	Task   string `json:"task,omitempty"` // empty runs every configured task
	DryRun bool   `json:"dry_run,omitempty"`
}

// SweepCompletedPayload summarizes a retention sweep run.
type SweepCompletedPayload struct {
	Task        string `json:"task"`
	Examined    int    `json:"examined"`
	SoftDeleted int    `json:"soft_deleted"`
	Archived    int    `json:"archived"`
	Skipped     int    `json:"skipped"`
	DryRun      bool   `json:"dry_run,omitempty"`
	Truncated   bool   `json:"truncated,omitempty"` // hit the operation cap
}

// SweepFailedPayload signals a sweep run failure.
type SweepFailedPayload struct {
	Task  string `json:"task,omitempty"`
	Error string `json:"error"`
}

// -------------------------- reconciliation domain --------------------------

// OrphanFoundPayload signals a store file with no index row.
type OrphanFoundPayload struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// OrphanCollectedPayload signals an orphaned store file moved aside.
type OrphanCollectedPayload struct {
	Path        string `json:"path"`
	CollectedTo string `json:"collected_to,omitempty"`
}

// ReconcileCompletedPayload summarizes a reconciliation run.
type ReconcileCompletedPayload struct {
	Scanned   int  `json:"scanned"`
	Orphans   int  `json:"orphans"`
	Collected int  `json:"collected"`
	Missing   int  `json:"missing"` // index rows whose store file is gone
	DryRun    bool `json:"dry_run,omitempty"`
}

// ReconcileFailedPayload signals a reconciliation run failure.
type ReconcileFailedPayload struct {
	Error string `json:"error"`
}
