package configs

import "github.com/spf13/viper"

// EventsConfig toggles event publishing globally and per topic.
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Record  RecordEventsConfig `mapstructure:"record"`
}

// RecordEventsConfig toggles events for the file index domain.
type RecordEventsConfig struct {
	Published       bool `mapstructure:"published"`
	Republished     bool `mapstructure:"republished"`
	SoftDeleted     bool `mapstructure:"soft_deleted"`
	Restored        bool `mapstructure:"restored"`
	Archived        bool `mapstructure:"archived"`
	OrphanCollected bool `mapstructure:"orphan_collected"`
	SweepCompleted  bool `mapstructure:"sweep_completed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	// The minimal useful set is on by default.
	v.SetDefault("events.record.published", true)
	v.SetDefault("events.record.soft_deleted", true)
	v.SetDefault("events.record.sweep_completed", true)

	// Optional events, off by default.
	v.SetDefault("events.record.republished", false) // no-op republish can be noisy
	v.SetDefault("events.record.restored", false)
	v.SetDefault("events.record.archived", false)
	v.SetDefault("events.record.orphan_collected", false)
}
