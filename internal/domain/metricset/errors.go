package metricset

import "errors"

// Sentinel kinds for selection errors.
var (
	ErrInvalidSelection = errors.New("invalid metric selection")
)
