package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/internal/domain/types"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/okian/athleteprofile/pkg/metrics"
)

// ColumnTestType is the optional attribute column profiles filter on.
const ColumnTestType = "Test Type"

// ProfileRequest selects one athlete session and the comparison population.
type ProfileRequest struct {
	Athlete string
	// Session is a date, or empty for the most recent session.
	Session string
	// TestType filters rows on the Test Type column when the table has one.
	TestType string
	// Group is team (default), self or other.
	Group string
}

// ParseGroup normalizes a comparison group name.
func ParseGroup(g string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "", types.GroupTeam:
		return types.GroupTeam, nil
	case types.GroupSelf:
		return types.GroupSelf, nil
	case types.GroupOther:
		return types.GroupOther, nil
	}
	return "", fmt.Errorf("%w: unknown comparison group %q", ErrInvalidRequest, g)
}

// Profile assembles every chart of the dashboard for one athlete session.
// Metrics the table lacks are reported as missing; they never fail the request.
func (s *Service) Profile(ctx context.Context, req ProfileRequest) (types.Profile, error) {
	start := time.Now()
	p, err := s.profile(ctx, req)
	latency := float64(time.Since(start).Microseconds()) / 1000.0
	switch {
	case err != nil:
		metrics.RecordProfileRequest(metrics.OutcomeError, latency)
	case p.Partial:
		metrics.RecordProfileRequest(metrics.OutcomePartial, latency)
	default:
		metrics.RecordProfileRequest(metrics.OutcomeOK, latency)
	}
	return p, err
}

func (s *Service) profile(ctx context.Context, req ProfileRequest) (types.Profile, error) {
	if err := ctx.Err(); err != nil {
		return types.Profile{}, fmt.Errorf("context cancelled: %w", err)
	}
	athlete := strings.TrimSpace(req.Athlete)
	if athlete == "" {
		return types.Profile{}, fmt.Errorf("%w: athlete is required", ErrInvalidRequest)
	}
	group, err := ParseGroup(req.Group)
	if err != nil {
		return types.Profile{}, err
	}

	t, err := s.table(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	if req.TestType != "" && t.Has(ColumnTestType) {
		t = t.Filter(func(r table.Record) bool {
			return strings.EqualFold(r.Attr(ColumnTestType), req.TestType)
		})
	}
	session := aggregate.ParseSession(req.Session)

	var team *table.Table
	if group == types.GroupOther {
		team = t.Filter(func(r table.Record) bool { return r.Athlete != athlete })
	}

	rec, err := s.engine.ResolveSession(t, athlete, session)
	if err != nil {
		return types.Profile{}, err
	}
	// Every chart reads the session resolved here.
	current := aggregate.OnDate(rec.Date)

	radar, err := s.chart(t, athlete, current, metricset.Radar, "Athlete Vs "+titleCase(group), group,
		aggregate.CompareOptions{Team: team})
	if err != nil {
		return types.Profile{}, err
	}
	selfVsTeam, err := s.chart(t, athlete, current, metricset.Radar, "Self Vs Team", types.GroupTeam,
		aggregate.CompareOptions{})
	if err != nil {
		return types.Profile{}, err
	}
	trend, err := s.chart(t, athlete, current, metricset.Bars, "Recent Vs Average", types.GroupSelf,
		aggregate.CompareOptions{ExcludeMostRecent: true})
	if err != nil {
		return types.Profile{}, err
	}
	movement, err := s.chart(t, athlete, current, metricset.Movement, "Movement Signature", group,
		aggregate.CompareOptions{Team: team})
	if err != nil {
		return types.Profile{}, err
	}

	p := types.Profile{
		Athlete:    athlete,
		Session:    current.Date(),
		TestType:   req.TestType,
		Group:      group,
		Radar:      radar,
		SelfVsTeam: selfVsTeam,
		Trend:      trend,
		Movement:   movement,
		Asymmetry:  s.asymmetry(t, athlete),
	}

	p.TSA, err = s.composite(ctx, t, athlete, current)
	if err != nil {
		return types.Profile{}, err
	}

	if entry, err := s.store.Rank(ctx, athlete); err == nil {
		e := toAPIEntry(entry)
		p.Rank = &e
	}

	p.Partial = len(radar.Missing)+len(selfVsTeam.Missing)+len(trend.Missing)+
		len(movement.Missing)+len(p.Asymmetry.Missing) > 0 || p.Asymmetry.Unavailable
	if p.Partial {
		s.logger.Debug(ctx, "partial profile",
			logger.String("athlete", athlete),
			logger.String("session", p.Session),
			logger.Strings("radar_missing", radar.Missing),
			logger.Strings("movement_missing", movement.Missing),
		)
	}
	return p, nil
}

func (s *Service) chart(t *table.Table, athlete string, session aggregate.Session, name, title, baseline string, opts aggregate.CompareOptions) (types.Chart, error) {
	sel, ok := s.selections[name]
	if !ok {
		return types.Chart{}, &aggregate.ConfigError{Field: "selection " + name, Reason: "not configured"}
	}
	res, err := s.engine.Compare(t, athlete, session, sel, opts)
	if err != nil {
		return types.Chart{}, err
	}
	placeholders := 0
	for _, c := range res.Comparisons {
		if c.Placeholder {
			placeholders++
		}
	}
	metrics.RecordMissingMetrics(name, len(res.Missing))
	metrics.RecordPlaceholderMetrics(name, placeholders)
	return types.Chart{
		Title:       title,
		Selection:   name,
		Baseline:    baseline,
		Comparisons: res.Comparisons,
		Missing:     res.Missing,
	}, nil
}

// asymmetry compares the athlete's first session with their average to date.
// When only one side carries a metric the bars fall back to the shared labels.
func (s *Service) asymmetry(t *table.Table, athlete string) types.Asymmetry {
	out := types.Asymmetry{Bars: []types.AsymmetryBar{}}
	sel, ok := s.selections[metricset.Asymmetry]
	if !ok {
		out.Unavailable, out.Reason = true, "asymmetry selection not configured"
		return out
	}
	lm, err := metricset.NewLabelMap(sel)
	if err != nil {
		out.Unavailable, out.Reason = true, err.Error()
		return out
	}
	history := t.ForAthlete(athlete).Records()
	if len(history) == 0 {
		out.Unavailable, out.Reason = true, "no sessions"
		return out
	}
	first := history[0]
	out.BaselineSession = first.Date

	keys := sel.Keys()
	baseline := make(map[string]float64, len(keys))
	for _, k := range keys {
		if v, ok := first.Value(k); ok {
			baseline[k] = v
		}
	}
	toDate, err := s.engine.AthleteAverage(t, athlete, keys, false)
	if err != nil && !aggregate.IsPartial(err) {
		out.Unavailable, out.Reason = true, err.Error()
		return out
	}
	if len(baseline) == 0 && len(toDate) == 0 {
		out.Unavailable, out.Reason = true, "no asymmetry metrics in table"
		out.Missing = sel.Labels()
		return out
	}

	base, cur := lm.Translate(baseline), lm.Translate(toDate)
	pairs, err := aggregate.DivergingDelta(base, cur)
	var km *aggregate.KeyMismatchError
	if errors.As(err, &km) {
		out.Reason = err.Error()
		out.Missing = append(append(out.Missing, km.OnlyBaseline...), km.OnlyCurrent...)
		sort.Strings(out.Missing)
		base, cur = intersect(base, cur)
		pairs, err = aggregate.DivergingDelta(base, cur)
	}
	if err != nil {
		out.Unavailable, out.Reason = true, err.Error()
		return out
	}
	for _, m := range sel.Metrics {
		pair, ok := pairs[m.Label]
		if !ok {
			if !contains(out.Missing, m.Label) {
				out.Missing = append(out.Missing, m.Label)
			}
			continue
		}
		out.Bars = append(out.Bars, types.AsymmetryBar{Label: m.Label, Baseline: pair.Baseline, AvgToDate: pair.Current})
	}
	return out
}

func intersect(a, b map[string]float64) (map[string]float64, map[string]float64) {
	outA := make(map[string]float64, len(a))
	outB := make(map[string]float64, len(b))
	for k, v := range a {
		if w, ok := b[k]; ok {
			outA[k], outB[k] = v, w
		}
	}
	return outA, outB
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
