package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/athleteprofile/internal/domain/table"
)

// Session selects which of an athlete's records is "current".
type Session struct {
	date string
}

// MostRecent selects the athlete's most recent record under the engine's policy.
func MostRecent() Session { return Session{} }

// OnDate selects the athlete's record on date. With several records on the
// same date, the last one in table order wins.
func OnDate(date string) Session { return Session{date: strings.TrimSpace(date)} }

// ParseSession maps "", "most_recent" and "latest" to MostRecent and anything else to OnDate.
func ParseSession(s string) Session {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "most_recent", "latest":
		return MostRecent()
	}
	return OnDate(s)
}

// IsMostRecent reports whether the selector is MostRecent.
func (s Session) IsMostRecent() bool { return s.date == "" }

// Date returns the explicit date, or "" for MostRecent.
func (s Session) Date() string { return s.date }

func (s Session) String() string {
	if s.IsMostRecent() {
		return "most_recent"
	}
	return s.date
}

// SessionPolicy defines what "most recent" means.
type SessionPolicy int

const (
	// PolicyTableOrder takes the last record in table order. Dates are never
	// parsed, so unsorted sources yield the last row, not the latest date.
	PolicyTableOrder SessionPolicy = iota
	// PolicyLatestDate takes the record with the greatest parsed date; ties go
	// to the later record and unparseable dates rank oldest.
	PolicyLatestDate
)

// ParseSessionPolicy maps config strings to a policy.
func ParseSessionPolicy(s string) (SessionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table_order":
		return PolicyTableOrder, nil
	case "latest_date":
		return PolicyLatestDate, nil
	}
	return PolicyTableOrder, &ConfigError{Field: "session_policy", Reason: fmt.Sprintf("unknown policy %q", s)}
}

func (p SessionPolicy) String() string {
	if p == PolicyLatestDate {
		return "latest_date"
	}
	return "table_order"
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// mostRecentIndex returns the index in records of the most recent record, or -1.
func (p SessionPolicy) mostRecentIndex(records []table.Record) int {
	if len(records) == 0 {
		return -1
	}
	if p != PolicyLatestDate {
		return len(records) - 1
	}
	best := -1
	var bestAt time.Time
	bestParsed := false
	for i, r := range records {
		at, ok := parseDate(r.Date)
		switch {
		case ok && (!bestParsed || !at.Before(bestAt)):
			best, bestAt, bestParsed = i, at, true
		case !ok && !bestParsed:
			best = i
		}
	}
	return best
}
