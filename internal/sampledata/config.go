// Package sampledata generates synthetic force-plate sheets and checks a
// running server against them.
package sampledata

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for Config.
const (
	DefaultAthletes = 24
	DefaultSessions = 6
	DefaultInterval = 7 * 24 * time.Hour
	DefaultDropRate = 0.05
	dateLayout      = "2006-01-02"
)

// ErrInvalidConfig reports an unusable generator configuration.
var ErrInvalidConfig = errors.New("invalid sample data config")

// Config holds configuration for a generated sheet.
type Config struct {
	Athletes  int           // Number of athletes
	Sessions  int           // Sessions per athlete
	Start     time.Time     // Date of the first session
	Interval  time.Duration // Gap between sessions
	Seed      int64         // Seed for names and values; 0 picks a random one
	TestTypes []string      // Test types rotated across sessions
	DropRate  float64       // Fraction of metric cells left empty
	Output    string        // Output CSV path
	BaseURL   string        // Server to verify against; empty skips verification
	Timeout   time.Duration // HTTP request timeout
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Athletes < 1:
		return fmt.Errorf("%w: athletes must be positive", ErrInvalidConfig)
	case c.Sessions < 1:
		return fmt.Errorf("%w: sessions must be positive", ErrInvalidConfig)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	case c.DropRate < 0 || c.DropRate >= 1:
		return fmt.Errorf("%w: drop rate must be in [0, 1)", ErrInvalidConfig)
	case len(c.TestTypes) == 0:
		return fmt.Errorf("%w: at least one test type is required", ErrInvalidConfig)
	}
	return nil
}
