package types

// SweepRequest triggers a retention sweep. An empty Task runs every
// configured task; DryRun forces a dry run regardless of config.
type SweepRequest struct {
	Task   string `form:"task" json:"task,omitempty" rule:"omitempty,max=64"`
	DryRun bool   `form:"dry_run" json:"dry_run,omitempty"`
}

// SweepTaskResult reports one retention task outcome.
type SweepTaskResult struct {
	Task         string `json:"task"`
	Examined     int    `json:"examined"`
	SoftDeleted  int    `json:"soft_deleted"`
	Archived     int    `json:"archived"`
	SkippedGrace int    `json:"skipped_grace"`
	DryRun       bool   `json:"dry_run"`
	// Truncated is set when the sweep stopped at the operations cap.
	Truncated bool `json:"truncated,omitempty"`
}

// SweepResponse aggregates the results of all executed tasks.
type SweepResponse struct {
	Results []SweepTaskResult `json:"results"`
}

// ReconcileRequest triggers an orphan reconciliation pass.
type ReconcileRequest struct {
	DryRun bool `form:"dry_run" json:"dry_run,omitempty"`
}

// ReconcileResponse reports one reconciliation pass.
type ReconcileResponse struct {
	Scanned   int `json:"scanned"`
	Orphans   int `json:"orphans"`
	Collected int `json:"collected"`
	// Missing lists indexed paths absent on disk. They are reported,
	// never auto-deleted.
	Missing []string `json:"missing,omitempty"`
	DryRun  bool     `json:"dry_run"`
}
