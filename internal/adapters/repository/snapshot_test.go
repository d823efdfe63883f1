package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/athleteprofile/internal/domain/table"
)

// floatEqual compares two float64 values with a small tolerance for floating-point precision
func floatEqual(a, b float64) bool {
	const tolerance = 1e-10
	return math.Abs(a-b) < tolerance
}

func testTable() *table.Table {
	return table.New([]string{table.ColumnName, table.ColumnDate}, []table.Record{
		{Athlete: "Avery", Date: "2025-01-04"},
		{Athlete: "Blake", Date: "2025-01-04"},
	})
}

func TestSnapshotStore_Empty(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Table(ctx); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := store.Rank(ctx, "Avery"); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := store.TopN(ctx, 5); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestSnapshotStore_Leaderboard(t *testing.T) {
	ctx := context.Background()
	loadedAt := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	store := NewSnapshotStore(WithClock(func() time.Time { return loadedAt }))

	snap, err := store.Swap(ctx, testTable(), []Score{
		{Athlete: "Casey", Value: 70},
		{Athlete: "Avery", Value: 82.5, Approximate: true},
		{Athlete: "Blake", Value: 70},
		{Athlete: "Drew", Value: 40},
		{Athlete: "", Value: 99},
		{Athlete: "Eli", Value: math.NaN()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ID == "" {
		t.Error("expected snapshot id")
	}
	if !snap.LoadedAt.Equal(loadedAt) {
		t.Errorf("expected loaded at %v, got %v", loadedAt, snap.LoadedAt)
	}

	if count := store.Count(ctx); count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		athlete    string
		rank       int
		percentile float64
	}{
		{"Avery", 1, 100},
		{"Blake", 2, 50},
		{"Casey", 2, 50},
		{"Drew", 3, 0},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Athlete != w.athlete || entries[i].Rank != w.rank || !floatEqual(entries[i].Percentile, w.percentile) {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], w)
		}
	}
	if !entries[0].Approximate {
		t.Error("expected approximate flag to survive")
	}

	e, err := store.Rank(ctx, "Casey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Rank != 2 || e.Score != 70 {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, err := store.Rank(ctx, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	top, err := store.TopN(ctx, 2)
	if err != nil || len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d (%v)", len(top), err)
	}
	top[0].Athlete = "mutated"
	if again, _ := store.TopN(ctx, 1); again[0].Athlete != "Avery" {
		t.Error("TopN must return a copy")
	}
}

func TestSnapshotStore_SingleAthlete(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	if _, err := store.Swap(ctx, testTable(), []Score{{Athlete: "Avery", Value: 10}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := store.Rank(ctx, "Avery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Rank != 1 || e.Percentile != 100 {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestSnapshotStore_DuplicateAthleteKeepsBest(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	_, err := store.Swap(ctx, testTable(), []Score{
		{Athlete: "Avery", Value: 40, Session: "old"},
		{Athlete: "Avery", Value: 60, Session: "new"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := store.Count(ctx); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	e, _ := store.Rank(ctx, "Avery")
	if e.Session != "new" {
		t.Errorf("expected best session, got %q", e.Session)
	}
}

func TestSnapshotStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(WithMaxLimit(5))

	if _, err := store.Swap(ctx, nil, nil); !errors.Is(err, ErrNilTable) {
		t.Errorf("expected ErrNilTable, got %v", err)
	}
	if _, err := store.Swap(ctx, testTable(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range []int{0, -1, 6} {
		if _, err := store.TopN(ctx, n); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", n, err)
		}
	}
	entries, err := store.TopN(ctx, 5)
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty leaderboard, got %v (%v)", entries, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Swap(cancelled, testTable(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSnapshotStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	if _, err := store.Swap(ctx, testTable(), []Score{{Athlete: "Avery", Value: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				scores := []Score{{Athlete: "Avery", Value: float64(i)}, {Athlete: "Blake", Value: float64(i)}}
				if _, err := store.Swap(ctx, testTable(), scores); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := store.Snapshot(ctx)
				if err != nil {
					errs <- err
					return
				}
				for _, e := range snap.Entries() {
					if idx, ok := snap.byAthlete[e.Athlete]; !ok || snap.entries[idx].Athlete != e.Athlete {
						errs <- errors.New("snapshot index out of sync")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
