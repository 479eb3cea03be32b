// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/matchup/internal/adapters/http/swagger"
	service "github.com/okian/matchup/internal/app"
	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Predict(ctx context.Context, req service.Request) (model.Prediction, error)
	Snapshot(ctx context.Context, team string, asOf time.Time) (model.TeamSnapshot, error)
	HeadToHead(ctx context.Context, a, b string) (model.HeadToHeadRecord, error)
	Teams(ctx context.Context) ([]string, error)
	GetStats(ctx context.Context) (service.Stats, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	deps           Dependencies
	allowedOrigins []string
	logger         logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	teamsHandler   *TeamsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		allowedOrigins: []string{"*"},
		logger:         logger.Nop(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		predictHandler: NewPredictHandler(deps),
		teamsHandler:   NewTeamsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router with all routes attached.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	r.Get("/teams", MetricsMiddleware(s.teamsHandler.HandleTeams, "teams"))
	r.Get("/teams/{abbr}/snapshot", MetricsMiddleware(s.teamsHandler.HandleSnapshot, "snapshot"))
	r.Get("/matchup/{team1}/{team2}", MetricsMiddleware(s.teamsHandler.HandleMatchup, "matchup"))
	swagger.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
