package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for aggregation errors. Concrete error types below unwrap to
// these so callers can use errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrMissingMetric = errors.New("missing metric")
	ErrConfig        = errors.New("invalid aggregation config")
	ErrKeyMismatch   = errors.New("label sets differ")
)

// NotFoundError reports that no record matched an athlete or session.
type NotFoundError struct {
	Athlete string
	Session string
}

func (e *NotFoundError) Error() string {
	if e.Session == "" {
		return fmt.Sprintf("athlete %q %s", e.Athlete, ErrNotFound)
	}
	return fmt.Sprintf("athlete %q session %q %s", e.Athlete, e.Session, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MissingMetricError lists metrics absent from every candidate record. It is
// returned next to a partial result: the named metrics are omitted, every
// other metric was computed.
type MissingMetricError struct {
	Scope   string
	Metrics []string
}

func (e *MissingMetricError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMissingMetric, e.Scope, strings.Join(e.Metrics, ", "))
}

func (e *MissingMetricError) Unwrap() error { return ErrMissingMetric }

// Has reports whether metric is one of the missing ones.
func (e *MissingMetricError) Has(metric string) bool {
	for _, m := range e.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// ConfigError reports malformed composite weights or selections.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// KeyMismatchError reports labels present on only one side of a diverging comparison.
type KeyMismatchError struct {
	OnlyBaseline []string
	OnlyCurrent  []string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("%s: only in baseline [%s], only in current [%s]", ErrKeyMismatch,
		strings.Join(e.OnlyBaseline, ", "), strings.Join(e.OnlyCurrent, ", "))
}

func (e *KeyMismatchError) Unwrap() error { return ErrKeyMismatch }

// IsPartial reports whether err only signals missing metrics, meaning the
// accompanying result is usable.
func IsPartial(err error) bool {
	var mm *MissingMetricError
	return errors.As(err, &mm)
}
