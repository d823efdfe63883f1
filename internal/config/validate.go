package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
)

// RequiredSelections must be present in Selections.
var RequiredSelections = []string{ //nolint:gochecknoglobals // fixed dashboard sections
	metricset.Radar,
	metricset.Bars,
	metricset.Movement,
	metricset.Asymmetry,
	metricset.TSA,
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig; weight
// problems additionally wrap aggregate.ErrConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if strings.TrimSpace(c.Source) == "" {
		return invalid("source must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return invalid("log_format %q", c.LogFormat)
	}
	if c.SourceTimeoutMS <= 0 {
		return invalid("source_timeout_ms must be positive")
	}
	if c.SourceRetries < 1 {
		return invalid("source_retries must be at least 1")
	}
	if c.SourceBackoffMS < 0 || c.RefreshIntervalMS < 0 || c.CacheSizeMB < 0 || c.CacheTTLSeconds < 0 {
		return invalid("durations and sizes must not be negative")
	}
	if c.ScoringWorkers <= 0 {
		return invalid("scoring_workers must be positive")
	}
	if c.MaxLeaderboardLimit <= 0 {
		return invalid("max_leaderboard_limit must be positive")
	}
	if _, err := aggregate.ParseSessionPolicy(c.SessionPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	names := make([]string, 0, len(c.Selections))
	for name := range c.Selections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sel := c.Selections[name]
		if err := sel.Validate(); err != nil {
			return fmt.Errorf("%w: selection %s: %w", ErrInvalidConfig, name, err)
		}
	}
	for _, name := range RequiredSelections {
		if _, ok := c.Selections[name]; !ok {
			return invalid("selection %s is required", name)
		}
	}

	tsa := c.Selections[metricset.TSA]
	if err := aggregate.ValidateWeights(len(tsa.Metrics), c.Weights()); err != nil {
		return fmt.Errorf("%w: tsa_weights: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Weights returns TSAWeights, or nil for uniform weighting.
func (c *Config) Weights() []float64 {
	if len(c.TSAWeights) == 0 {
		return nil
	}
	return c.TSAWeights
}
