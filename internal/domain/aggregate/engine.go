// Package aggregate derives session, athlete and team metric vectors from a
// metric table and combines sub-scores into composites.
//
// Every operation is a pure function of its inputs: the table is never
// modified and the Engine holds only immutable settings, so one Engine may be
// shared across goroutines.
package aggregate

import (
	"sort"

	"github.com/okian/athleteprofile/internal/domain/table"
	"gonum.org/v1/gonum/stat"
)

// Default engine configuration constants.
const (
	defaultPlaceholder = 50
)

// Vector maps metric key (or label, after translation) to a value.
type Vector map[string]float64

// Pair aligns a baseline and current value for diverging comparisons.
type Pair struct {
	Baseline float64 `json:"baseline"`
	Current  float64 `json:"current"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSessionPolicy sets what "most recent" means.
func WithSessionPolicy(p SessionPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithDefaultPlaceholder sets the stand-in used for metrics without their own placeholder.
func WithDefaultPlaceholder(v float64) Option {
	return func(e *Engine) {
		e.placeholder = v
	}
}

// Engine computes aggregations over a table.
type Engine struct {
	policy      SessionPolicy
	placeholder float64
}

// New creates an Engine with the table-order session policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:      PolicyTableOrder,
		placeholder: defaultPlaceholder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the session policy in use.
func (e *Engine) Policy() SessionPolicy { return e.policy }

// Placeholder returns the default stand-in value.
func (e *Engine) Placeholder() float64 { return e.placeholder }

// ResolveSession returns the record selected by session for athlete.
func (e *Engine) ResolveSession(t *table.Table, athlete string, session Session) (table.Record, error) {
	history := t.ForAthlete(athlete).Records()
	if len(history) == 0 {
		return table.Record{}, &NotFoundError{Athlete: athlete}
	}
	if session.IsMostRecent() {
		return history[e.policy.mostRecentIndex(history)], nil
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Date == session.Date() {
			return history[i], nil
		}
	}
	return table.Record{}, &NotFoundError{Athlete: athlete, Session: session.Date()}
}

// CurrentSessionVector returns the metric values of the selected session.
// Metrics the record does not carry are omitted and reported in a
// *MissingMetricError returned with the partial vector.
func (e *Engine) CurrentSessionVector(t *table.Table, athlete string, session Session, metrics []string) (Vector, error) {
	rec, err := e.ResolveSession(t, athlete, session)
	if err != nil {
		return nil, err
	}
	out := make(Vector, len(metrics))
	var missing []string
	for _, m := range metrics {
		if v, ok := rec.Value(m); ok {
			out[m] = v
			continue
		}
		missing = append(missing, m)
	}
	if len(missing) > 0 {
		return out, &MissingMetricError{Scope: "session " + athlete + " " + rec.Date, Metrics: missing}
	}
	return out, nil
}

// AthleteAverage returns the mean of each metric over the athlete's records.
// With excludeMostRecent the most recent record is dropped first, unless it
// is the only record.
func (e *Engine) AthleteAverage(t *table.Table, athlete string, metrics []string, excludeMostRecent bool) (Vector, error) {
	history := t.ForAthlete(athlete).Records()
	if len(history) == 0 {
		return nil, &NotFoundError{Athlete: athlete}
	}
	if excludeMostRecent && len(history) > 1 {
		drop := e.policy.mostRecentIndex(history)
		rest := make([]table.Record, 0, len(history)-1)
		rest = append(rest, history[:drop]...)
		rest = append(rest, history[drop+1:]...)
		history = rest
	}
	return meanVector(history, metrics, "athlete "+athlete)
}

// TeamAverage returns the mean of each metric over every record in the table.
func (e *Engine) TeamAverage(t *table.Table, metrics []string) (Vector, error) {
	return meanVector(t.Records(), metrics, "team")
}

// CompositeScore delegates to the package-level CompositeScore.
func (e *Engine) CompositeScore(subScores, weights []float64) (float64, error) {
	return CompositeScore(subScores, weights)
}

// CompositeScore returns the weighted mean of subScores. Nil weights mean
// uniform weighting. Weights must match subScores in length, be
// non-negative and not all zero.
func CompositeScore(subScores, weights []float64) (float64, error) {
	if err := ValidateWeights(len(subScores), weights); err != nil {
		return 0, err
	}
	return stat.Mean(subScores, weights), nil
}

// ValidateWeights checks composite weights for n sub-scores.
func ValidateWeights(n int, weights []float64) error {
	if n == 0 {
		return &ConfigError{Field: "sub_scores", Reason: "no sub-scores"}
	}
	if weights == nil {
		return nil
	}
	if len(weights) != n {
		return &ConfigError{Field: "weights", Reason: "length does not match sub-scores"}
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return &ConfigError{Field: "weights", Reason: "negative weight"}
		}
		sum += w
	}
	if sum == 0 {
		return &ConfigError{Field: "weights", Reason: "weights sum to zero"}
	}
	return nil
}

// DivergingDelta pairs baseline and current values by label. Both maps must
// carry exactly the same labels.
func DivergingDelta(baseline, current map[string]float64) (map[string]Pair, error) {
	var onlyBase, onlyCur []string
	for k := range baseline {
		if _, ok := current[k]; !ok {
			onlyBase = append(onlyBase, k)
		}
	}
	for k := range current {
		if _, ok := baseline[k]; !ok {
			onlyCur = append(onlyCur, k)
		}
	}
	if len(onlyBase) > 0 || len(onlyCur) > 0 {
		sort.Strings(onlyBase)
		sort.Strings(onlyCur)
		return nil, &KeyMismatchError{OnlyBaseline: onlyBase, OnlyCurrent: onlyCur}
	}
	out := make(map[string]Pair, len(baseline))
	for k, b := range baseline {
		out[k] = Pair{Baseline: b, Current: current[k]}
	}
	return out, nil
}

// meanVector averages each metric over the records that carry it.
func meanVector(records []table.Record, metrics []string, scope string) (Vector, error) {
	out := make(Vector, len(metrics))
	var missing []string
	values := make([]float64, 0, len(records))
	for _, m := range metrics {
		values = values[:0]
		for _, r := range records {
			if v, ok := r.Value(m); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			missing = append(missing, m)
			continue
		}
		out[m] = stat.Mean(values, nil)
	}
	if len(missing) > 0 {
		return out, &MissingMetricError{Scope: scope, Metrics: missing}
	}
	return out, nil
}
