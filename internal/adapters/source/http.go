package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/coocood/freecache"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/okian/athleteprofile/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultAttempts    = 3
	defaultBackoff     = 250 * time.Millisecond
	maxBodyBytes       = 32 << 20
)

// errBodyTooLarge marks a body cut off at the size limit.
var errBodyTooLarge = errors.New("body exceeds limit")

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetries sets the attempt count and the initial backoff, doubled
// after every failed attempt.
func WithRetries(attempts int, backoff time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// WithCache keeps the raw body in cache for ttl.
func WithCache(cache *freecache.Cache, ttl time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.ttl = ttl
		}
	}
}

// WithMaxBodyBytes caps the accepted body size. Larger bodies fail the load.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithLogger sets the source logger.
func WithLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.log = l
		}
	}
}

// HTTPSource downloads a CSV export, typically a published spreadsheet.
type HTTPSource struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	cache    *freecache.Cache
	ttl      time.Duration
	maxBody  int64
	log      logger.Logger
	group    singleflight.Group
}

// NewHTTPSource returns a source for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:      url,
		client:   http.DefaultClient,
		timeout:  defaultHTTPTimeout,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		maxBody:  maxBodyBytes,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Name() string { return s.url }
func (s *HTTPSource) Kind() string { return KindHTTP }

// Invalidate drops the cached body so the next Load goes to the network.
func (s *HTTPSource) Invalidate() {
	if s.cache != nil {
		s.cache.Del([]byte(s.url))
	}
}

// Load fetches (or reuses the cached body) and parses it. Concurrent
// callers share a single download.
func (s *HTTPSource) Load(ctx context.Context) (*table.Table, error) {
	body, err := s.body(ctx)
	if err != nil {
		return nil, err
	}
	t, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, withSource(err, s.url)
	}
	return t, nil
}

func (s *HTTPSource) body(ctx context.Context) ([]byte, error) {
	key := []byte(s.url)
	if s.cache != nil {
		if b, err := s.cache.Get(key); err == nil {
			metrics.RecordSourceCache(true)
			return b, nil
		}
		metrics.RecordSourceCache(false)
	}

	// The shared download outlives any single caller; each caller stops
	// waiting on its own ctx.
	ch := s.group.DoChan(s.url, func() (any, error) {
		dctx := context.WithoutCancel(ctx)
		b, err := s.download(dctx)
		if err != nil {
			return nil, err
		}
		s.store(dctx, key, b)
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, &LoadError{Source: s.url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug(ctx, "shared in-flight download", logger.String("url", s.url))
		}
		return res.Val.([]byte), nil
	}
}

func (s *HTTPSource) store(ctx context.Context, key, b []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(key, b, expireSeconds(s.ttl)); err != nil {
		// freecache refuses entries larger than 1/1024 of its size
		s.log.Warn(ctx, "failed to cache source body",
			logger.String("url", s.url), logger.Int("bytes", len(b)), logger.Error(err))
	}
}

// expireSeconds rounds ttl up to whole seconds. freecache reads 0 as
// "never expire", so anything positive maps to at least 1.
func expireSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int(math.Ceil(ttl.Seconds()))
}

func (s *HTTPSource) download(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			wait := s.backoff << uint(attempt-1)
			s.log.Warn(ctx, "source fetch failed, retrying",
				logger.String("url", s.url),
				logger.Int("attempt", attempt),
				logger.Duration("wait", wait),
				logger.Error(lastErr))
			metrics.RecordSourceFetch(metrics.OutcomeRetry)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, &LoadError{Source: s.url, Err: ctx.Err()}
			case <-timer.C:
			}
		}

		b, retry, err := s.get(ctx)
		if err == nil {
			metrics.RecordSourceFetch(metrics.OutcomeOK)
			return b, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	metrics.RecordSourceFetch(metrics.OutcomeError)
	return nil, &LoadError{Source: s.url, Err: lastErr}
}

// get performs one attempt. retry reports whether the failure is transient.
func (s *HTTPSource) get(ctx context.Context) (body []byte, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, !errors.Is(err, context.Canceled), fmt.Errorf("http client do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > s.maxBody {
		return nil, false, fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, s.maxBody)
	}
	return b, false, nil
}
