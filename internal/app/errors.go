package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotReady       = errors.New("no table loaded yet")
	ErrNoSource       = errors.New("no source configured")
)
