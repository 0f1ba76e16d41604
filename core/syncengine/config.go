package syncengine

// Config holds tuning for sync cycles.
type Config struct {
	// Target names the sync target this deployment manages.
	Target string `mapstructure:"target" default:"sellers"`
	// CacheTTLMinutes bounds the age of the cached baseline snapshot.
	// Zero means the baseline never expires.
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes" default:"10"`
	// IntervalMinutes is the pause between automated sync cycles.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"15"`
	// AutoSync enables the background cycle scheduler.
	AutoSync bool `mapstructure:"auto_sync" default:"false"`
	// SnapshotBeforeSync captures a snapshot before each cycle that is
	// expected to delete records, so the deletion can be rolled back.
	SnapshotBeforeSync bool `mapstructure:"snapshot_before_sync" default:"true"`
}
