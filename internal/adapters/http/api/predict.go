package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/matchup/internal/app"
)

const maxBodyBytes = 1 << 16

// predictRequest mirrors the OpenAPI schema for POST /predict.
type predictRequest struct {
	Team1           string `json:"team1"`
	Team2           string `json:"team2"`
	Team1BackToBack bool   `json:"team1_back_to_back"`
	Team2BackToBack bool   `json:"team2_back_to_back"`
	AsOf            string `json:"as_of,omitempty"`
}

func (p predictRequest) toService() (service.Request, error) {
	req := service.Request{
		Team1:           p.Team1,
		Team2:           p.Team2,
		Team1BackToBack: p.Team1BackToBack,
		Team2BackToBack: p.Team2BackToBack,
	}
	if strings.TrimSpace(p.AsOf) != "" {
		t, err := parseDate(p.AsOf)
		if err != nil {
			return service.Request{}, err
		}
		req.AsOf = t
	}
	return req, nil
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var body predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err))
		return
	}
	req, err := body.toService()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", ErrBadRequest)
	}
	return t, nil
}
