package metrics

import (
	"errors"
	"fmt"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownOutcome = errors.New("unknown metrics outcome")
)

// Outcome labels shared by the load and fetch counters.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeRetry   = "retry"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomePartial = "partial"
)

// ValidOutcome reports ErrUnknownOutcome for labels outside the fixed set,
// keeping label cardinality bounded.
func ValidOutcome(outcome string) error {
	switch outcome {
	case OutcomeOK, OutcomeError, OutcomeRetry, OutcomeHit, OutcomeMiss, OutcomePartial:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
}
