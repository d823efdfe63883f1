package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/pkg/metrics"
)

const defaultMaxLimit = 1000

var _ Store = (*SnapshotStore)(nil)

// Snapshot is an immutable view of one loaded table and its leaderboard.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Table    *table.Table

	entries   []Entry // ordered by rank
	byAthlete map[string]int
}

// Entries returns a copy of the leaderboard.
func (s *Snapshot) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// SnapshotStore publishes snapshots through an atomic pointer. Readers never
// block and never observe a half-built snapshot.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
	maxLimit int
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		now:      time.Now,
		maxLimit: defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Swap builds a new snapshot from t and scores and publishes it.
func (s *SnapshotStore) Swap(ctx context.Context, t *table.Table, scores []Score) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if t == nil {
		return nil, ErrNilTable
	}
	start := time.Now()

	entries := make([]Entry, 0, len(scores))
	for _, sc := range scores {
		if sc.Athlete == "" || math.IsNaN(sc.Value) {
			continue
		}
		entries = append(entries, Entry{
			Athlete:     sc.Athlete,
			Session:     sc.Session,
			Score:       sc.Value,
			Approximate: sc.Approximate,
		})
	}
	sortEntries(entries)
	entries = dedupeAthletes(entries)
	assignRanksWithTies(entries)
	assignPercentiles(entries)

	byAthlete := make(map[string]int, len(entries))
	for i, e := range entries {
		byAthlete[e.Athlete] = i
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		LoadedAt:  s.now(),
		Table:     t,
		entries:   entries,
		byAthlete: byAthlete,
	}
	s.snapshot.Store(snap)

	metrics.UpdateLeaderboard(len(entries), float64(time.Since(start).Microseconds())/1000.0)
	return snap, nil
}

// Snapshot returns the published snapshot.
func (s *SnapshotStore) Snapshot(_ context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrEmpty
	}
	return snap, nil
}

// Table returns the published table.
func (s *SnapshotStore) Table(ctx context.Context) (*table.Table, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Table, nil
}

// Rank looks up an athlete's leaderboard entry.
func (s *SnapshotStore) Rank(ctx context.Context, athlete string) (Entry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Entry{}, err
	}
	i, ok := snap.byAthlete[athlete]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, athlete)
	}
	return snap.entries[i], nil
}

// TopN returns up to n entries from the top of the leaderboard.
func (s *SnapshotStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 || n > s.maxLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(snap.entries) {
		n = len(snap.entries)
	}
	return append([]Entry(nil), snap.entries[:n]...), nil
}

// Count returns the number of ranked athletes, zero before the first Swap.
func (s *SnapshotStore) Count(_ context.Context) int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// sortEntries orders by score desc, then athlete asc.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Athlete < entries[j].Athlete
	})
}

// dedupeAthletes keeps each athlete's best entry. entries must be sorted.
func dedupeAthletes(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.Athlete]; ok {
			continue
		}
		seen[e.Athlete] = struct{}{}
		out = append(out, e)
	}
	return out
}

// assignRanksWithTies gives equal scores the same rank; ranks stay
// consecutive (1, 1, 2).
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}

// assignPercentiles maps rank 1 to 100 and the last distinct rank to 0.
func assignPercentiles(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	last := entries[len(entries)-1].Rank
	for i := range entries {
		if last == 1 {
			entries[i].Percentile = 100
			continue
		}
		entries[i].Percentile = 100 * float64(last-entries[i].Rank) / float64(last-1)
	}
}
