package aggregate

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/okian/athleteprofile/internal/domain/metricset"
	"github.com/okian/athleteprofile/internal/domain/table"
)

// Value is a float that may be absent. It encodes as null when not valid so
// a missing metric never reads as a computed zero.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a valid Value.
func Some(v float64) Value { return Value{Float: v, Valid: true} }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Float, 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to an invalid Value.
func (v *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Comparison is one metric's current, athlete-average and team-average values.
type Comparison struct {
	Label          string `json:"label"`
	Key            string `json:"key,omitempty"`
	Current        Value  `json:"current"`
	AthleteAverage Value  `json:"athlete_average"`
	TeamAverage    Value  `json:"team_average"`
	// Placeholder marks stand-in values for metrics not in the table.
	Placeholder bool `json:"placeholder"`
}

// Result is the aggregation of one selection for one athlete and session.
type Result struct {
	Selection   string       `json:"selection"`
	Athlete     string       `json:"athlete"`
	Session     string       `json:"session"`
	Comparisons []Comparison `json:"comparisons"`
	// Missing lists keys with at least one uncomputable value.
	Missing []string `json:"missing,omitempty"`
}

// ByLabel indexes the comparisons by display label.
func (r Result) ByLabel() map[string]Comparison {
	out := make(map[string]Comparison, len(r.Comparisons))
	for _, c := range r.Comparisons {
		out[c.Label] = c
	}
	return out
}

// CompareOptions tunes Compare.
type CompareOptions struct {
	// ExcludeMostRecent drops the most recent session from the athlete average.
	ExcludeMostRecent bool
	// Team is the population for the team average. Nil means the whole table.
	Team *table.Table
}

// Compare builds the comparison of a selection for an athlete's session
// against the athlete's own average and the team average over t (or
// opts.Team). Metrics without a key, or whose key no record carries, report their placeholder
// on all three values and are flagged. NotFoundError aborts; missing metrics
// never do.
func (e *Engine) Compare(t *table.Table, athlete string, session Session, sel metricset.Selection, opts CompareOptions) (Result, error) {
	if err := sel.Validate(); err != nil {
		return Result{}, &ConfigError{Field: "selection " + sel.Name, Reason: err.Error()}
	}
	rec, err := e.ResolveSession(t, athlete, session)
	if err != nil {
		return Result{}, err
	}
	keys := sel.Keys()
	current, err := e.CurrentSessionVector(t, athlete, OnDate(rec.Date), keys)
	if err != nil && !IsPartial(err) {
		return Result{}, err
	}
	avg, err := e.AthleteAverage(t, athlete, keys, opts.ExcludeMostRecent)
	if err != nil && !IsPartial(err) {
		return Result{}, err
	}
	population := t
	if opts.Team != nil {
		population = opts.Team
	}
	team, err := e.TeamAverage(population, keys)
	if err != nil && !IsPartial(err) {
		return Result{}, err
	}

	res := Result{
		Selection:   sel.Name,
		Athlete:     athlete,
		Session:     rec.Date,
		Comparisons: make([]Comparison, 0, len(sel.Metrics)),
	}
	for _, m := range sel.Metrics {
		c := Comparison{Label: m.Label, Key: m.Key}
		cur, okCur := current[m.Key]
		a, okAvg := avg[m.Key]
		tm, okTeam := team[m.Key]
		if m.Key == "" || (!okTeam && !okCur && !okAvg) {
			// No record carries the metric.
			ph := metricset.PlaceholderFor(m, e.placeholder)
			c.Current, c.AthleteAverage, c.TeamAverage = Some(ph), Some(ph), Some(ph)
			c.Placeholder = true
			if m.Key != "" {
				res.Missing = append(res.Missing, m.Key)
			}
			res.Comparisons = append(res.Comparisons, c)
			continue
		}
		if okTeam {
			c.TeamAverage = Some(tm)
		}
		if okCur {
			c.Current = Some(cur)
		}
		if okAvg {
			c.AthleteAverage = Some(a)
		}
		if !okCur || !okAvg || !okTeam {
			res.Missing = append(res.Missing, m.Key)
		}
		res.Comparisons = append(res.Comparisons, c)
	}
	return res, nil
}
