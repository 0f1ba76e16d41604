package snapshot

// Config holds snapshot retention settings.
type Config struct {
	// RetentionDays is how long snapshots are kept before CleanupOld
	// removes them. The most recent snapshot of a target is always kept
	// regardless of age.
	RetentionDays int `mapstructure:"retention_days" default:"30"`
}
