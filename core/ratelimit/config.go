package ratelimit

// Config holds configuration for the shared spreadsheet API quota gate.
type Config struct {
	// Limit is the maximum number of requests allowed per window.
	// The Google Sheets default read quota is 60 requests per minute per user.
	Limit int `mapstructure:"limit" default:"55"`
	// WindowSeconds is the quota window length in seconds.
	WindowSeconds int `mapstructure:"window_seconds" default:"60"`
	// SmoothingRPS spaces requests inside a window to avoid burst rejections
	// at the provider edge. Zero disables smoothing.
	SmoothingRPS float64 `mapstructure:"smoothing_rps" default:"2"`
	// Burst is the maximum burst size allowed by the smoother.
	Burst int `mapstructure:"burst" default:"4"`
}
