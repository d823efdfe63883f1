// Package service loads the metric table, keeps the published snapshot fresh
// and assembles athlete profiles for the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/athleteprofile/internal/adapters/mq/worker"
	"github.com/okian/athleteprofile/internal/adapters/repository"
	"github.com/okian/athleteprofile/internal/adapters/source"
	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
	"github.com/okian/athleteprofile/internal/domain/scoring"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/internal/domain/types"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/okian/athleteprofile/pkg/metrics"
)

// Scorer computes the composite for a session and names the columns it reads.
type Scorer interface {
	scoring.Scorer
	Keys() []string
}

// Service implements the API dependencies for the athlete dashboard.
type Service struct {
	mu sync.Mutex
	// reloadMu serializes Reload so an older load never publishes over a newer one.
	reloadMu sync.Mutex

	source     source.Source
	store      repository.Store
	engine     *aggregate.Engine
	scorer     Scorer
	selections map[string]metricset.Selection
	testTypes  []string
	groups     []string
	refresh    time.Duration
	workers    int

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	reloads  atomic.Uint64
	failures atomic.Uint64
	lastErr  atomic.Pointer[string]

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where the table is loaded from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore replaces the default snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine replaces the default aggregation engine.
func WithEngine(e *aggregate.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithScorer replaces the default TSA scorer.
func WithScorer(sc Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSelections overrides selections by name. Unnamed selections keep
// their defaults.
func WithSelections(sel map[string]metricset.Selection) Option {
	return func(s *Service) {
		for name, v := range sel {
			s.selections[name] = v
		}
	}
}

// WithTestTypes sets the test types offered when the table has no Test Type column.
func WithTestTypes(tt []string) Option {
	return func(s *Service) {
		if len(tt) > 0 {
			s.testTypes = append([]string(nil), tt...)
		}
	}
}

// WithComparisonGroups sets the groups offered to clients.
func WithComparisonGroups(groups []string) Option {
	return func(s *Service) {
		if len(groups) > 0 {
			s.groups = append([]string(nil), groups...)
		}
	}
}

// WithWorkerCount sets how many athletes are scored concurrently on reload.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRefreshInterval reloads the table periodically. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refresh = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:      repository.NewSnapshotStore(),
		engine:     aggregate.New(),
		scorer:     scoring.NewTSAScorer(),
		selections: metricset.Defaults(),
		testTypes:  []string{"CMJ-RE", "CMJ", "ISO", "MAXED"},
		groups:     []string{"Self", "Team", "Other"},
		logger:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the table once and starts the refresher. A failed first load
// is returned to the caller; there is nothing to serve without a table.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting athlete profile service...",
		logger.String("source", s.source.Name()),
		logger.String("kind", s.source.Kind()),
		logger.String("session_policy", s.engine.Policy().String()),
	)

	if _, err := s.Reload(ctx, false); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	s.stopCh = make(chan struct{})
	if s.refresh > 0 {
		s.startRefresher(ctx, s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "athlete profile service started",
		logger.Duration("refresh_interval", s.refresh),
		logger.Int("ranked", s.store.Count(ctx)),
	)
	return nil
}

// Stop stops the refresher.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping athlete profile service...")

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	s.started = false
	s.logger.Info(context.Background(), "athlete profile service stopped")
}

func (s *Service) startRefresher(ctx context.Context, stop <-chan struct{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				// Failures keep the previous snapshot; Reload logs and counts them.
				_, _ = s.Reload(ctx, false)
			}
		}
	}()
}

// Reload loads the table, scores every athlete's latest session and
// publishes the result. force drops any cached copy held by the source.
func (s *Service) Reload(ctx context.Context, force bool) (*repository.Snapshot, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	reloadID := uuid.NewString()
	log := s.logger.With(logger.String("reload_id", reloadID))
	start := time.Now()

	if inv, ok := s.source.(source.Invalidator); ok && force {
		inv.Invalidate()
	}

	t, err := s.source.Load(ctx)
	metrics.RecordTableLoadDuration(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		s.recordFailure(err)
		metrics.RecordTableLoad(s.source.Kind(), metrics.OutcomeError)
		metrics.RecordErrorByComponent("source", errorKind(err))
		log.Error(ctx, "table load failed", logger.String("source", s.source.Name()), logger.Error(err))
		return nil, err
	}

	scores, err := s.scoreAll(ctx, t)
	if err != nil {
		s.recordFailure(err)
		metrics.RecordTableLoad(s.source.Kind(), metrics.OutcomeError)
		log.Error(ctx, "scoring failed", logger.Error(err))
		return nil, err
	}
	snap, err := s.store.Swap(ctx, t, scores)
	if err != nil {
		s.recordFailure(err)
		metrics.RecordTableLoad(s.source.Kind(), metrics.OutcomeError)
		log.Error(ctx, "publish failed", logger.Error(err))
		return nil, err
	}

	s.reloads.Add(1)
	s.lastErr.Store(nil)
	athletes := t.Athletes()
	metrics.RecordTableLoad(s.source.Kind(), metrics.OutcomeOK)
	metrics.UpdateTableShape(t.Len(), len(athletes), len(t.Unique(table.ColumnDate)), snap.LoadedAt.Unix())
	log.Info(ctx, "table published",
		logger.String("snapshot_id", snap.ID),
		logger.Int("rows", t.Len()),
		logger.Int("athletes", len(athletes)),
		logger.Int("ranked", len(scores)),
		logger.Duration("took", time.Since(start)),
	)
	return snap, nil
}

// scoreAll computes the composite of each athlete's most recent session.
// Athletes that cannot be scored are left off the leaderboard.
func (s *Service) scoreAll(ctx context.Context, t *table.Table) ([]repository.Score, error) {
	pool := worker.NewPool(s.workers, worker.ScoreFunc(func(ctx context.Context, athlete string) (repository.Score, error) {
		c, err := s.composite(ctx, t, athlete, aggregate.MostRecent())
		if err != nil {
			return repository.Score{}, err
		}
		return repository.Score{
			Athlete:     athlete,
			Session:     c.Session,
			Value:       c.Score,
			Approximate: c.Approximate,
		}, nil
	}), worker.WithLogger(s.logger.Named("scoring")))

	scores, failed, err := pool.Run(ctx, t.Athletes())
	if failed > 0 {
		s.logger.Warn(ctx, "athletes left unranked", logger.Int("failed", failed))
	}
	return scores, err
}

// composite scores one session. Missing columns are tolerated; the scorer
// substitutes placeholders for them.
func (s *Service) composite(ctx context.Context, t *table.Table, athlete string, session aggregate.Session) (scoring.Composite, error) {
	rec, err := s.engine.ResolveSession(t, athlete, session)
	if err != nil {
		return scoring.Composite{}, err
	}
	vec, err := s.engine.CurrentSessionVector(t, athlete, aggregate.OnDate(rec.Date), s.scorer.Keys())
	if err != nil && !aggregate.IsPartial(err) {
		return scoring.Composite{}, err
	}
	return s.scorer.Score(ctx, scoring.Input{Athlete: athlete, Session: rec.Date, Values: vec})
}

func (s *Service) recordFailure(err error) {
	s.failures.Add(1)
	msg := err.Error()
	s.lastErr.Store(&msg)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, source.ErrSchema):
		return "schema"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "load"
	}
}

// table returns the published table.
func (s *Service) table(ctx context.Context) (*table.Table, error) {
	t, err := s.store.Table(ctx)
	if errors.Is(err, repository.ErrEmpty) {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return t, err
}

// Athletes returns the sorted athlete names of the published table.
func (s *Service) Athletes(ctx context.Context) ([]string, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Athletes(), nil
}

// Sessions returns an athlete's session dates in table order.
func (s *Service) Sessions(ctx context.Context, athlete string) ([]string, error) {
	if athlete == "" {
		return nil, fmt.Errorf("%w: athlete is required", ErrInvalidRequest)
	}
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	sessions := t.Sessions(athlete)
	if len(sessions) == 0 {
		return nil, &aggregate.NotFoundError{Athlete: athlete}
	}
	return sessions, nil
}

// Options lists the selectable athletes, test types and comparison groups.
// Test types come from the table's Test Type column when it has one.
func (s *Service) Options(ctx context.Context) (types.Options, error) {
	t, err := s.table(ctx)
	if err != nil {
		return types.Options{}, err
	}
	testTypes := s.testTypes
	if found := t.Unique(ColumnTestType); len(found) > 0 {
		testTypes = found
	}
	return types.Options{
		Athletes:         t.Athletes(),
		TestTypes:        append([]string(nil), testTypes...),
		ComparisonGroups: append([]string(nil), s.groups...),
	}, nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		if errors.Is(err, repository.ErrEmpty) {
			return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return nil, err
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = toAPIEntry(entry)
	}
	return apiEntries, nil
}

// Rank returns the leaderboard entry of an athlete.
func (s *Service) Rank(ctx context.Context, athlete string) (types.Entry, error) {
	entry, err := s.store.Rank(ctx, athlete)
	if err != nil {
		if errors.Is(err, repository.ErrEmpty) {
			return types.Entry{}, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return types.Entry{}, err
	}
	return toAPIEntry(entry), nil
}

func toAPIEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:        e.Rank,
		Athlete:     e.Athlete,
		Session:     e.Session,
		Score:       e.Score,
		Percentile:  e.Percentile,
		Approximate: e.Approximate,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	stats := types.Stats{
		Started:  started,
		Reloads:  s.reloads.Load(),
		Failures: s.failures.Load(),
	}
	if s.source != nil {
		stats.Source = s.source.Name()
		stats.SourceKind = s.source.Kind()
	}
	if s.refresh > 0 {
		stats.RefreshEach = s.refresh.String()
	}
	if msg := s.lastErr.Load(); msg != nil {
		stats.LastError = *msg
	}
	if snap, err := s.store.Snapshot(ctx); err == nil {
		stats.SnapshotID = snap.ID
		stats.LoadedAt = snap.LoadedAt
		stats.Rows = snap.Table.Len()
		stats.Athletes = len(snap.Table.Athletes())
		stats.Ranked = s.store.Count(ctx)
	}
	return stats
}
