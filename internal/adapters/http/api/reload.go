package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/athleteprofile/internal/adapters/repository"
)

// ReloadDependencies triggers a table reload.
type ReloadDependencies interface {
	Reload(ctx context.Context, force bool) (*repository.Snapshot, error)
}

// ReloadHandler handles reload requests.
type ReloadHandler struct {
	deps ReloadDependencies
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

type reloadResponse struct {
	SnapshotID string    `json:"snapshot_id"`
	LoadedAt   time.Time `json:"loaded_at"`
	Rows       int       `json:"rows"`
}

// HandleReload handles POST /reload?force=true requests. A failed reload
// leaves the previous snapshot published.
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	snap, err := h.deps.Reload(r.Context(), force)
	if err != nil {
		writeErrorFor(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		SnapshotID: snap.ID,
		LoadedAt:   snap.LoadedAt,
		Rows:       snap.Table.Len(),
	})
}
