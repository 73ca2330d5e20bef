// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	NewQuery(player, playerType, start, end, pitch string) (service.Query, error)
	Players(pt model.PlayerType) ([]string, string, error)
	Dashboard(ctx context.Context, q service.Query) (service.DashboardView, error)
	Heatmap(ctx context.Context, q service.Query) (zone.CountMatrix, error)
	Prefetch(ctx context.Context, q service.Query) (jobID string, dup bool, err error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	dashboardHandler *DashboardHandler
	prefetchHandler  *PrefetchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		playersHandler:   NewPlayersHandler(deps),
		dashboardHandler: NewDashboardHandler(deps),
		prefetchHandler:  NewPrefetchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/players", MetricsMiddleware(s.playersHandler.HandleGetPlayers, "players"))
	mux.HandleFunc("/api/dashboard", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.HandleFunc("/api/heatmap", MetricsMiddleware(s.dashboardHandler.HandleGetHeatmap, "heatmap"))
	mux.HandleFunc("/api/prefetch", MetricsMiddleware(s.prefetchHandler.HandlePostPrefetch, "prefetch"))
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
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeFailure maps an error from the service layer to a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	var invalid *zone.InvalidRecordError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadGateway, "invalid_record"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, service.ErrUnknownPlayer):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeFailure(w, NewKind("api."+r.URL.Path, ErrMethodNotAllowed))
	return false
}
