// Package source loads metric tables from local files or remote CSV exports.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/pkg/logger"
)

// Source kinds reported by Kind.
const (
	KindFile   = "file"
	KindHTTP   = "http"
	KindStatic = "static"
)

// Source produces a metric table.
type Source interface {
	// Load reads the whole table, honoring ctx for cancellation.
	Load(ctx context.Context) (*table.Table, error)
	// Name identifies the source in logs and errors.
	Name() string
	// Kind is one of KindFile, KindHTTP or KindStatic.
	Kind() string
}

// Invalidator is implemented by sources that keep a local copy of the data.
type Invalidator interface {
	Invalidate()
}

// Settings configures FromConfig.
type Settings struct {
	Location   string
	Timeout    time.Duration
	Attempts   int
	Backoff    time.Duration
	CacheBytes int
	CacheTTL   time.Duration
}

// FromConfig picks an HTTP source for http(s) locations and a file source
// otherwise.
func FromConfig(s Settings, log logger.Logger) (Source, error) {
	loc := strings.TrimSpace(s.Location)
	if loc == "" {
		return nil, &LoadError{Err: fmt.Errorf("empty source location")}
	}
	if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
		return NewFileSource(loc), nil
	}

	opts := []HTTPOption{
		WithTimeout(s.Timeout),
		WithRetries(s.Attempts, s.Backoff),
	}
	if log != nil {
		opts = append(opts, WithLogger(log))
	}
	if s.CacheBytes > 0 && s.CacheTTL > 0 {
		opts = append(opts, WithCache(freecache.NewCache(s.CacheBytes), s.CacheTTL))
	}
	return NewHTTPSource(loc, opts...), nil
}

// Static serves a fixed table. Used by tests and the sample-data preview.
type Static struct {
	t *table.Table
}

// NewStatic wraps t.
func NewStatic(t *table.Table) *Static { return &Static{t: t} }

// Load returns the wrapped table.
func (s *Static) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: s.Name(), Err: err}
	}
	if s.t == nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("no table")}
	}
	return s.t, nil
}

func (s *Static) Name() string { return "static" }
func (s *Static) Kind() string { return KindStatic }
