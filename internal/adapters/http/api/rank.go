package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, athlete string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{athlete} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	athlete := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/rank/"))
	if athlete == "" || strings.Contains(athlete, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: missing athlete", op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), athlete)
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
