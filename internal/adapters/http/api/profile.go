package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/athleteprofile/internal/app"
	"github.com/okian/athleteprofile/internal/domain/types"
)

// ProfileDependencies defines the read operations behind the dashboard.
type ProfileDependencies interface {
	Athletes(ctx context.Context) ([]string, error)
	Sessions(ctx context.Context, athlete string) ([]string, error)
	Options(ctx context.Context) (types.Options, error)
	Profile(ctx context.Context, req service.ProfileRequest) (types.Profile, error)
}

// ProfileHandler serves athlete selection and profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

type athletesResponse struct {
	Athletes []string `json:"athletes"`
}

type sessionsResponse struct {
	Athlete  string   `json:"athlete"`
	Sessions []string `json:"sessions"`
}

// HandleAthletes handles GET /athletes requests.
func (h *ProfileHandler) HandleAthletes(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_athletes"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	athletes, err := h.deps.Athletes(r.Context())
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, athletesResponse{Athletes: athletes})
}

// HandleSessions handles GET /sessions?athlete=NAME requests.
func (h *ProfileHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sessions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	athlete := r.URL.Query().Get("athlete")
	if athlete == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing athlete", op, ErrBadRequest))
		return
	}
	sessions, err := h.deps.Sessions(r.Context(), athlete)
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Athlete: athlete, Sessions: sessions})
}

// HandleOptions handles GET /options requests.
func (h *ProfileHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_options"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	opts, err := h.deps.Options(r.Context())
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleProfile handles GET /profile?athlete=NAME&session=DATE&test_type=T&group=G requests.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	req := service.ProfileRequest{
		Athlete:  q.Get("athlete"),
		Session:  q.Get("session"),
		TestType: q.Get("test_type"),
		Group:    q.Get("group"),
	}
	if req.Athlete == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing athlete", op, ErrBadRequest))
		return
	}
	p, err := h.deps.Profile(r.Context(), req)
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
