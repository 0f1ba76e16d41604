package synclog

// Config holds tuning for the sync health evaluation.
type Config struct {
	// HealthWindow is the number of recent completed cycles considered
	// when evaluating a target's health.
	HealthWindow int `mapstructure:"health_window" default:"10"`
	// FailingStreak is the number of consecutive failed cycles after
	// which a target is reported as failing.
	FailingStreak int `mapstructure:"failing_streak" default:"3"`
}
