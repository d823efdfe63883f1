package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/athleteprofile/internal/config"
	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/types"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const sheet = `Name,Date,Test Type,Jump Height Scaled,mRSI Scaled,Peak Velocity Scaled
Avery Cole,2025-01-04,CMJ,60,50,55
Avery Cole,2025-01-11,CMJ,80,70,65
Blake Hart,2025-01-04,CMJ,40,30,45
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.csv")
	if err := os.WriteFile(path, []byte(sheet), 0o600); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	cfg := config.New()
	cfg.Addr = "127.0.0.1:0"
	cfg.Source = path
	cfg.RefreshIntervalMS = 0
	return cfg
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a configuration pointing at a CSV file", t, func() {
		cfg := testConfig(t)

		convey.Convey("When building and starting the service", func() {
			svc, err := newService(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the mux serves profiles from the file", func() {
				mux := newMux(context.Background(), svc, cfg)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile?athlete=Avery+Cole", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				var p types.Profile
				convey.So(json.NewDecoder(w.Body).Decode(&p), convey.ShouldBeNil)
				convey.So(p.Session, convey.ShouldEqual, "2025-01-11")
				convey.So(p.Radar.Comparisons[0].TeamAverage.Float, convey.ShouldEqual, 60)
			})

			convey.Convey("And the API reference is mounted", func() {
				mux := newMux(context.Background(), svc, cfg)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the session policy is unknown", func() {
			cfg.SessionPolicy = "newest"
			_, err := newService(cfg, logger.Nop())
			convey.So(errors.Is(err, aggregate.ErrConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the TSA weights do not match the components", func() {
			cfg.TSAWeights = []float64{1, 2}
			_, err := newService(cfg, logger.Nop())
			convey.So(errors.Is(err, aggregate.ErrConfig), convey.ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a runnable configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Nop()) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then the server shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})

		convey.Convey("When the source is missing", func() {
			cfg.Source = filepath.Join(t.TempDir(), "absent.csv")
			err := run(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a manual update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the ticker loop exits on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
