// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Fields are exported so koanf can unmarshal into them.
// - New(ctx) builds a Config with defaults; Load(ctx) layers file and env on top.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import "context"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":7002".
	Addr string `koanf:"addr"`

	// MaxLeaderboardLimit caps GET /highscorelist regardless of
	// population.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":7002",
		MaxLeaderboardLimit: 20_000,
	}
}
