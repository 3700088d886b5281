package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CleanupMode selects what happens to a swept version.
type CleanupMode string

const (
	// CleanupModeSoftDelete marks the index row deleted and leaves the file.
	CleanupModeSoftDelete CleanupMode = "soft-delete"
	// CleanupModeArchive copies the file to the archive mirror first,
	// then marks the index row deleted.
	CleanupModeArchive CleanupMode = "archive"
)

const (
	DefaultRetentionGraceWindow = time.Hour
	DefaultOrphanGraceWindow    = 24 * time.Hour
	DefaultMaxFileOperations    = 1000
)

// RetentionTask describes one sweep rule for a family of logical keys.
// Patterns use filepath.Match syntax; an empty pattern matches everything.
type RetentionTask struct {
	Name       string `mapstructure:"name"       rule:"required"`
	Instrument string `mapstructure:"instrument"`
	Level      string `mapstructure:"level"`
	Descriptor string `mapstructure:"descriptor"`
	// KeepLatest is how many trailing active versions stay visible.
	// The sweeper never goes below one regardless of this value.
	KeepLatest int `mapstructure:"keep_latest" rule:"min=1"`
	// OlderThan restricts sweeping to versions created before now-OlderThan.
	// Zero disables the age restriction.
	OlderThan time.Duration `mapstructure:"older_than"`
	Mode      CleanupMode   `mapstructure:"mode" rule:"oneof=soft-delete archive"`
}

// RetentionConfig configures the retention sweeper and orphan reconciler.
type RetentionConfig struct {
	Tasks []RetentionTask `mapstructure:"tasks"`
	// GraceWindow keeps the sweeper away from records young enough to be
	// part of an in-flight publish.
	GraceWindow time.Duration `mapstructure:"grace_window"`
	// OrphanGraceWindow is how old an unindexed store file must be before
	// the reconciler may collect it.
	OrphanGraceWindow time.Duration `mapstructure:"orphan_grace_window"`
	// MaxOperations caps file operations per sweep run.
	MaxOperations int  `mapstructure:"max_operations" rule:"min=1"`
	DryRun        bool `mapstructure:"dry_run"`
}

// setDefaults applies retention config defaults.
func (c *RetentionConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("retention.tasks", []RetentionTask{})
	v.SetDefault("retention.grace_window", DefaultRetentionGraceWindow)
	v.SetDefault("retention.orphan_grace_window", DefaultOrphanGraceWindow)
	v.SetDefault("retention.max_operations", DefaultMaxFileOperations)
	v.SetDefault("retention.dry_run", false)
}
