package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/okian/athleteprofile/internal/adapters/http/api"
	service "github.com/okian/athleteprofile/internal/app"
	"github.com/okian/athleteprofile/internal/adapters/repository"
	"github.com/okian/athleteprofile/internal/adapters/source"
	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/table"
	"github.com/okian/athleteprofile/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies and api.StatsProvider.
type mockDependencies struct {
	athletes   []string
	sessions   map[string][]string
	profile    types.Profile
	profileErr error
	lastReq    service.ProfileRequest
	topN       []types.Entry
	topNErr    error
	rank       types.Entry
	rankErr    error
	reloadErr  error
	forced     bool
	stats      types.Stats
}

func (m *mockDependencies) Athletes(ctx context.Context) ([]string, error) {
	if m.athletes == nil {
		return nil, fmt.Errorf("%w: %w", service.ErrNotReady, repository.ErrEmpty)
	}
	return m.athletes, nil
}

func (m *mockDependencies) Sessions(ctx context.Context, athlete string) ([]string, error) {
	s, ok := m.sessions[athlete]
	if !ok {
		return nil, &aggregate.NotFoundError{Athlete: athlete}
	}
	return s, nil
}

func (m *mockDependencies) Options(ctx context.Context) (types.Options, error) {
	return types.Options{Athletes: m.athletes, TestTypes: []string{"CMJ"}, ComparisonGroups: []string{"Team"}}, nil
}

func (m *mockDependencies) Profile(ctx context.Context, req service.ProfileRequest) (types.Profile, error) {
	m.lastReq = req
	if m.profileErr != nil {
		return types.Profile{}, m.profileErr
	}
	return m.profile, nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Rank(ctx context.Context, athlete string) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockDependencies) Reload(ctx context.Context, force bool) (*repository.Snapshot, error) {
	m.forced = force
	if m.reloadErr != nil {
		return nil, m.reloadErr
	}
	return &repository.Snapshot{
		ID:       "snap-1",
		LoadedAt: time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		Table:    table.New([]string{"Name", "Date"}, []table.Record{{Athlete: "Avery Cole", Date: "2025-01-11"}}),
	}, nil
}

func (m *mockDependencies) GetStats(ctx context.Context) types.Stats {
	return m.stats
}

func newMock() *mockDependencies {
	return &mockDependencies{
		athletes: []string{"Avery Cole", "Blake Hart"},
		sessions: map[string][]string{"Avery Cole": {"2025-01-04", "2025-01-11"}},
		profile:  types.Profile{Athlete: "Avery Cole", Session: "2025-01-11", Group: types.GroupTeam},
		topN: []types.Entry{
			{Rank: 1, Athlete: "Avery Cole", Score: 61, Percentile: 100},
			{Rank: 2, Athlete: "Blake Hart", Score: 45, Percentile: 0},
		},
		rank:  types.Entry{Rank: 1, Athlete: "Avery Cole", Score: 61},
		stats: types.Stats{Started: true, Rows: 3},
	}
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newMock()
		mux := http.NewServeMux()
		api.NewServer(deps, deps, 100).Register(context.Background(), mux)

		Convey("Then health serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats are served as JSON", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats types.Stats
			So(json.NewDecoder(w.Body).Decode(&stats), ShouldBeNil)
			So(stats.Rows, ShouldEqual, 3)
		})

		Convey("Then athletes and options are listed", func() {
			w := serve(mux, http.MethodGet, "/athletes")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Blake Hart")

			w = serve(mux, http.MethodGet, "/options")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"test_types":["CMJ"]`)
		})

		Convey("Then the table not being loaded is a 503", func() {
			deps.athletes = nil
			w := serve(mux, http.MethodGet, "/athletes")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_ready"`)
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestProfileHandler(t *testing.T) {
	Convey("Given a profile handler", t, func() {
		deps := newMock()
		handler := api.NewProfileHandler(deps)

		Convey("When requesting a profile with every parameter", func() {
			q := url.Values{}
			q.Set("athlete", "Avery Cole")
			q.Set("session", "2025-01-04")
			q.Set("test_type", "CMJ")
			q.Set("group", "other")
			w := httptest.NewRecorder()
			handler.HandleProfile(w, httptest.NewRequest(http.MethodGet, "/profile?"+q.Encode(), nil))

			Convey("Then the request is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastReq, ShouldResemble, service.ProfileRequest{
					Athlete: "Avery Cole", Session: "2025-01-04", TestType: "CMJ", Group: "other",
				})
				var p types.Profile
				So(json.NewDecoder(w.Body).Decode(&p), ShouldBeNil)
				So(p.Athlete, ShouldEqual, "Avery Cole")
			})
		})

		Convey("When the athlete is missing", func() {
			w := httptest.NewRecorder()
			handler.HandleProfile(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When upstream reports errors", func() {
			cases := []struct {
				err    error
				status int
			}{
				{&aggregate.NotFoundError{Athlete: "Nobody"}, http.StatusNotFound},
				{fmt.Errorf("%w: unknown comparison group", service.ErrInvalidRequest), http.StatusBadRequest},
				{fmt.Errorf("%w: %w", service.ErrNotReady, repository.ErrEmpty), http.StatusServiceUnavailable},
				{&source.LoadError{Source: "sheet", Err: fmt.Errorf("502")}, http.StatusBadGateway},
				{&aggregate.ConfigError{Field: "selection radar", Reason: "not configured"}, http.StatusInternalServerError},
			}
			for _, c := range cases {
				deps.profileErr = c.err
				w := httptest.NewRecorder()
				handler.HandleProfile(w, httptest.NewRequest(http.MethodGet, "/profile?athlete=Nobody", nil))
				So(w.Code, ShouldEqual, c.status)
			}
		})

		Convey("When listing sessions", func() {
			w := httptest.NewRecorder()
			handler.HandleSessions(w, httptest.NewRequest(http.MethodGet, "/sessions?athlete=Avery+Cole", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"sessions":["2025-01-04","2025-01-11"]`)

			w = httptest.NewRecorder()
			handler.HandleSessions(w, httptest.NewRequest(http.MethodGet, "/sessions?athlete=Nobody", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)

			w = httptest.NewRecorder()
			handler.HandleSessions(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using the wrong method", func() {
			w := httptest.NewRecorder()
			handler.HandleProfile(w, httptest.NewRequest(http.MethodPost, "/profile?athlete=Avery+Cole", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := newMock()
		handler := api.NewLeaderboardHandler(deps, 100)

		Convey("When requesting top N entries", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=1", nil))

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 1)
				So(response[0].Athlete, ShouldEqual, "Avery Cole")
			})
		})

		Convey("When no limit is specified", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=101", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})

		Convey("When leaderboard returns an error", func() {
			deps.topNErr = fmt.Errorf("snapshot corrupted")
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=10", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := newMock()
		handler := api.NewRankHandler(deps)

		Convey("When requesting rank for a ranked athlete", func() {
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/Avery%20Cole", nil))

			Convey("Then it should return the rank information", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var response types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Rank, ShouldEqual, 1)
			})
		})

		Convey("When the athlete is not ranked", func() {
			deps.rankErr = repository.ErrNotFound
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/nobody", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path has no athlete", func() {
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, httptest.NewRequest(http.MethodGet, "/rank/", nil))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReloadHandler(t *testing.T) {
	Convey("Given a reload handler", t, func() {
		deps := newMock()
		handler := api.NewReloadHandler(deps)

		Convey("When forcing a reload", func() {
			w := httptest.NewRecorder()
			handler.HandleReload(w, httptest.NewRequest(http.MethodPost, "/reload?force=true", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.forced, ShouldBeTrue)
			So(w.Body.String(), ShouldContainSubstring, `"snapshot_id":"snap-1"`)
			So(w.Body.String(), ShouldContainSubstring, `"rows":1`)
		})

		Convey("When the source fails", func() {
			deps.reloadErr = &source.SchemaError{Source: "sheet", Missing: []string{"Date"}}
			w := httptest.NewRecorder()
			handler.HandleReload(w, httptest.NewRequest(http.MethodPost, "/reload", nil))
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(deps.forced, ShouldBeFalse)
		})

		Convey("When using GET", func() {
			w := httptest.NewRecorder()
			handler.HandleReload(w, httptest.NewRequest(http.MethodGet, "/reload", nil))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			w := httptest.NewRecorder()
			handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it should return OK status", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
