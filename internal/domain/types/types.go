// Package types contains the response shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/scoring"
)

// Comparison groups accepted by profile requests.
const (
	GroupTeam  = "team"
	GroupSelf  = "self"
	GroupOther = "other"
)

// Entry represents a leaderboard entry.
type Entry struct {
	Rank        int     `json:"rank"`
	Athlete     string  `json:"athlete"`
	Session     string  `json:"session"`
	Score       float64 `json:"score"`
	Percentile  float64 `json:"percentile"`
	Approximate bool    `json:"approximate"`
}

// Chart is one aggregated selection. Baseline names the series the chart
// compares against: team, self or other.
type Chart struct {
	Title       string                 `json:"title"`
	Selection   string                 `json:"selection"`
	Baseline    string                 `json:"baseline"`
	Comparisons []aggregate.Comparison `json:"comparisons"`
	Missing     []string               `json:"missing,omitempty"`
}

// AsymmetryBar pairs the first-session value with the average to date.
type AsymmetryBar struct {
	Label     string  `json:"label"`
	Baseline  float64 `json:"baseline"`
	AvgToDate float64 `json:"avg_to_date"`
}

// Asymmetry is the diverging comparison section. Unavailable is set when
// the table lacks the columns; Reason then says why.
type Asymmetry struct {
	BaselineSession string         `json:"baseline_session,omitempty"`
	Bars            []AsymmetryBar `json:"bars"`
	Missing         []string       `json:"missing,omitempty"`
	Unavailable     bool           `json:"unavailable"`
	Reason          string         `json:"reason,omitempty"`
}

// Profile is the full dashboard payload for one athlete session.
type Profile struct {
	Athlete    string            `json:"athlete"`
	Session    string            `json:"session"`
	TestType   string            `json:"test_type,omitempty"`
	Group      string            `json:"group"`
	Radar      Chart             `json:"radar"`
	SelfVsTeam Chart             `json:"self_vs_team"`
	Trend      Chart             `json:"trend"`
	Movement   Chart             `json:"movement"`
	Asymmetry  Asymmetry         `json:"asymmetry"`
	TSA        scoring.Composite `json:"tsa"`
	Rank       *Entry            `json:"rank,omitempty"`
	Partial    bool              `json:"partial"`
}

// Options lists the values clients can select from.
type Options struct {
	Athletes         []string `json:"athletes"`
	TestTypes        []string `json:"test_types"`
	ComparisonGroups []string `json:"comparison_groups"`
}

// Stats describes the published table and the reload history.
type Stats struct {
	Started     bool      `json:"started"`
	Source      string    `json:"source"`
	SourceKind  string    `json:"source_kind"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	Rows        int       `json:"rows"`
	Athletes    int       `json:"athletes"`
	Ranked      int       `json:"ranked"`
	Reloads     uint64    `json:"reloads"`
	Failures    uint64    `json:"failures"`
	LastError   string    `json:"last_error,omitempty"`
	RefreshEach string    `json:"refresh_interval,omitempty"`
}
