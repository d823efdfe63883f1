// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Durations are carried as integer milliseconds or seconds, suffixed in the key.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"time"

	"github.com/okian/athleteprofile/internal/domain/metricset"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Source is a CSV file path or an http(s) URL of a published sheet.
	Source string `koanf:"source"`

	// SourceTimeoutMS bounds a single remote fetch attempt.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// SourceRetries is the number of remote fetch attempts.
	SourceRetries int `koanf:"source_retries"`

	// SourceBackoffMS is the wait before the first retry; it doubles per attempt.
	SourceBackoffMS int `koanf:"source_backoff_ms"`

	// CacheSizeMB sizes the remote body cache. Zero disables it.
	CacheSizeMB int `koanf:"cache_size_mb"`

	// CacheTTLSeconds is how long a fetched body is reused.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RefreshIntervalMS reloads the table periodically. Zero disables it.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// ScoringWorkers is how many athletes are scored concurrently on reload.
	ScoringWorkers int `koanf:"scoring_workers"`

	// SessionPolicy picks the most recent session: table_order or latest_date.
	SessionPolicy string `koanf:"session_policy"`

	// DefaultPlaceholder is shown for metrics without data or their own placeholder.
	DefaultPlaceholder float64 `koanf:"default_placeholder"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// TestTypes lists test types offered when the table has no Test Type column.
	TestTypes []string `koanf:"test_types"`

	// ComparisonGroups lists the radar baselines offered to clients.
	ComparisonGroups []string `koanf:"comparison_groups"`

	// Selections maps a selection name (radar, bars, ...) to its metrics.
	Selections map[string]metricset.Selection `koanf:"selections"`

	// TSAWeights weights the composite components. Empty means uniform.
	TSAWeights []float64 `koanf:"tsa_weights"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Source:              "data/metrics.csv",
		SourceTimeoutMS:     10_000,
		SourceRetries:       3,
		SourceBackoffMS:     250,
		CacheSizeMB:         16,
		CacheTTLSeconds:     60,
		RefreshIntervalMS:   300_000,
		ScoringWorkers:      4,
		SessionPolicy:       "table_order",
		DefaultPlaceholder:  50,
		MaxLeaderboardLimit: 100,
		TestTypes:           []string{"CMJ-RE", "CMJ", "ISO", "MAXED"},
		ComparisonGroups:    []string{"Self", "Team", "Other"},
		Selections:          metricset.Defaults(),
	}
}

// SourceTimeout returns SourceTimeoutMS as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// SourceBackoff returns SourceBackoffMS as a duration.
func (c *Config) SourceBackoff() time.Duration {
	return time.Duration(c.SourceBackoffMS) * time.Millisecond
}

// RefreshInterval returns RefreshIntervalMS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CacheBytes returns CacheSizeMB in bytes.
func (c *Config) CacheBytes() int {
	return c.CacheSizeMB << 20
}
