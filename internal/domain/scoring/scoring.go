// Package scoring computes composite athleticism scores from session metrics.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
)

// Default scoring configuration constants.
const (
	defaultName        = "Total Score Athleticism (TSA)"
	defaultPlaceholder = 50
)

// Option applies a configuration option to the TSAScorer.
type Option func(*TSAScorer)

// WithName sets the composite's display name.
func WithName(name string) Option {
	return func(s *TSAScorer) {
		if name != "" {
			s.name = name
		}
	}
}

// WithComponents sets the sub-scores of the composite.
func WithComponents(components []metricset.Metric) Option {
	return func(s *TSAScorer) {
		if len(components) > 0 {
			// Copy to avoid external modifications
			s.components = append([]metricset.Metric(nil), components...)
		}
	}
}

// WithWeights sets per-component weights. Nil keeps uniform weighting.
func WithWeights(weights []float64) Option {
	return func(s *TSAScorer) {
		if weights != nil {
			s.weights = append([]float64(nil), weights...)
		}
	}
}

// WithPlaceholder sets the stand-in for components without their own placeholder.
func WithPlaceholder(v float64) Option {
	return func(s *TSAScorer) {
		s.placeholder = v
	}
}

// Input is the session a composite is computed from.
type Input struct {
	Athlete string
	Session string
	Values  aggregate.Vector
}

// Component is one resolved sub-score.
type Component struct {
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Placeholder bool    `json:"placeholder"`
}

// Composite is a scored session. Approximate is set when at least one
// component used its placeholder.
type Composite struct {
	Name        string      `json:"name"`
	Athlete     string      `json:"athlete"`
	Session     string      `json:"session"`
	Score       float64     `json:"score"`
	Approximate bool        `json:"approximate"`
	Components  []Component `json:"components"`
}

// Scorer computes a composite from a session.
type Scorer interface {
	// Score computes a composite, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Composite, error)
}

// TSAScorer implements Scorer as a weighted mean of named sub-scores.
type TSAScorer struct {
	name        string
	components  []metricset.Metric
	weights     []float64
	placeholder float64
}

// NewTSAScorer creates a scorer with the default TSA components.
func NewTSAScorer(opts ...Option) *TSAScorer {
	s := &TSAScorer{
		name:        defaultName,
		components:  metricset.Defaults()[metricset.TSA].Metrics,
		placeholder: defaultPlaceholder,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Validate reports a *aggregate.ConfigError for malformed weights.
func (s *TSAScorer) Validate() error {
	return aggregate.ValidateWeights(len(s.components), s.weights)
}

// Keys returns the source columns the scorer reads.
func (s *TSAScorer) Keys() []string {
	return metricset.Selection{Metrics: s.components}.Keys()
}

// Name returns the composite's display name.
func (s *TSAScorer) Name() string { return s.name }

// Score resolves each component from in.Values, falling back to its
// placeholder, and combines them.
func (s *TSAScorer) Score(ctx context.Context, in Input) (Composite, error) {
	if err := ctx.Err(); err != nil {
		return Composite{}, fmt.Errorf("context cancelled: %w", err)
	}
	out := Composite{
		Name:       s.name,
		Athlete:    in.Athlete,
		Session:    in.Session,
		Components: make([]Component, len(s.components)),
	}
	values := make([]float64, len(s.components))
	for i, m := range s.components {
		c := Component{Label: m.Label}
		v, ok := in.Values[m.Key]
		if m.Key == "" || !ok {
			v = metricset.PlaceholderFor(m, s.placeholder)
			c.Placeholder = true
			out.Approximate = true
		}
		c.Value = v
		out.Components[i] = c
		values[i] = v
	}
	// Sub-scores are already on the dashboard scale; the composite is their
	// weighted mean as is.
	score, err := aggregate.CompositeScore(values, s.weights)
	if err != nil {
		return Composite{}, err
	}
	out.Score = score
	return out, nil
}
