package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("athlete not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrEmpty        = errors.New("no table published yet")
	ErrNilTable     = errors.New("nil table")
)
