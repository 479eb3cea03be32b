package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// TeamsHandler serves team listings, snapshots and head-to-head records.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamsResponse struct {
	Teams []string `json:"teams"`
}

// HandleTeams handles GET /teams.
func (h *TeamsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: teams})
}

// HandleSnapshot handles GET /teams/{abbr}/snapshot?as_of=YYYY-MM-DD.
func (h *TeamsHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if v := r.URL.Query().Get("as_of"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		asOf = t
	}
	snap, err := h.deps.Snapshot(r.Context(), chi.URLParam(r, "abbr"), asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleMatchup handles GET /matchup/{team1}/{team2}.
func (h *TeamsHandler) HandleMatchup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.HeadToHead(r.Context(), chi.URLParam(r, "team1"), chi.URLParam(r, "team2"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
