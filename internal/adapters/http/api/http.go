// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/teamdraw/internal/adapters/repository"
	service "github.com/okian/teamdraw/internal/app"
	"github.com/okian/teamdraw/internal/domain/session"
	"github.com/okian/teamdraw/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	SessionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	h := s.sessionsHandler
	mux.HandleFunc("POST /sessions", MetricsMiddleware(h.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(h.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(h.HandleDelete, "sessions_delete"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(h.HandleReset, "sessions_reset"))
	mux.HandleFunc("POST /sessions/{id}/sort", MetricsMiddleware(h.HandleSort, "sessions_sort"))
	mux.HandleFunc("GET /sessions/{id}/history", MetricsMiddleware(h.HandleHistory, "sessions_history"))
	mux.HandleFunc("GET /sessions/{id}/notices", MetricsMiddleware(h.HandleNotices, "sessions_notices"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createResponse struct {
	SessionID string `json:"session_id"`
}

type historyResponse struct {
	SessionID string               `json:"session_id"`
	Entries   []types.HistoryEntry `json:"entries"`
}

type noticesResponse struct {
	SessionID string         `json:"session_id"`
	Notices   []types.Notice `json:"notices"`
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

// writeFailure maps upstream errors to a status and code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, validationCode(ve), WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrInternal, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

func validationCode(ve *session.ValidationError) string {
	if errors.Is(ve, session.ErrTeamCountTooSmall) {
		return "team_count_too_small"
	}
	return "not_enough_participants"
}
