package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/athleteprofile/internal/adapters/http/api"
	"github.com/okian/athleteprofile/internal/adapters/http/swagger"
	"github.com/okian/athleteprofile/internal/adapters/repository"
	"github.com/okian/athleteprofile/internal/adapters/source"
	app "github.com/okian/athleteprofile/internal/app"
	"github.com/okian/athleteprofile/internal/config"
	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
	"github.com/okian/athleteprofile/internal/domain/scoring"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/okian/athleteprofile/pkg/metrics"
	"golang.org/x/sync/errgroup"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "athlete profile server failed", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info(ctx, "server stopped")
		return nil
	})
	return g.Wait()
}

// newService builds the service and its collaborators from cfg.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	policy, err := aggregate.ParseSessionPolicy(cfg.SessionPolicy)
	if err != nil {
		return nil, err
	}
	src, err := source.FromConfig(source.Settings{
		Location:   cfg.Source,
		Timeout:    cfg.SourceTimeout(),
		Attempts:   cfg.SourceRetries,
		Backoff:    cfg.SourceBackoff(),
		CacheBytes: cfg.CacheBytes(),
		CacheTTL:   cfg.CacheTTL(),
	}, log.Named("source"))
	if err != nil {
		return nil, err
	}

	scorer := scoring.NewTSAScorer(
		scoring.WithComponents(cfg.Selections[metricset.TSA].Metrics),
		scoring.WithWeights(cfg.Weights()),
		scoring.WithPlaceholder(cfg.DefaultPlaceholder),
	)
	if err := scorer.Validate(); err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(src),
		app.WithStore(repository.NewSnapshotStore(repository.WithMaxLimit(cfg.MaxLeaderboardLimit))),
		app.WithEngine(aggregate.New(
			aggregate.WithSessionPolicy(policy),
			aggregate.WithDefaultPlaceholder(cfg.DefaultPlaceholder),
		)),
		app.WithScorer(scorer),
		app.WithSelections(cfg.Selections),
		app.WithTestTypes(cfg.TestTypes),
		app.WithComparisonGroups(cfg.ComparisonGroups),
		app.WithRefreshInterval(cfg.RefreshInterval()),
		app.WithWorkerCount(cfg.ScoringWorkers),
	), nil
}

// newMux registers the API reference and the business routes.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
