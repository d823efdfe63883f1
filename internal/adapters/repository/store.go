// Package repository holds the published metric table and the composite
// score leaderboard derived from it.
package repository

import (
	"context"

	"github.com/okian/athleteprofile/internal/domain/table"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank        int
	Athlete     string
	Session     string
	Score       float64
	Percentile  float64
	Approximate bool
}

// Score is an athlete's composite for their latest session.
type Score struct {
	Athlete     string
	Session     string
	Value       float64
	Approximate bool
}

// Store provides read/write access to the published state.
type Store interface {
	// Swap atomically replaces the table and leaderboard.
	Swap(ctx context.Context, t *table.Table, scores []Score) (*Snapshot, error)

	// Snapshot returns the current snapshot, or ErrEmpty before the first Swap.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Table returns the current table, or ErrEmpty before the first Swap.
	Table(ctx context.Context) (*table.Table, error)

	// Rank returns the leaderboard entry for an athlete.
	// Returns ErrNotFound if the athlete is not ranked.
	Rank(ctx context.Context, athlete string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked athletes.
	Count(ctx context.Context) int
}
