package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/teamdraw/internal/domain/types"
)

const maxSortBody = 1 << 20

// SessionDependencies defines the session operations used by the handlers.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (types.SessionState, error)
	SessionState(ctx context.Context, id string) (types.SessionState, error)
	SortTeams(ctx context.Context, id string, req types.SortRequest) (types.SortResponse, error)
	History(ctx context.Context, id string) ([]types.HistoryEntry, error)
	Notices(ctx context.Context, id string) ([]types.Notice, error)
	ResetSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
}

// SessionsHandler handles /sessions requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	st, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+st.SessionID)
	writeJSON(w, http.StatusCreated, createResponse{SessionID: st.SessionID})
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	st, err := h.deps.SessionState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDelete handles DELETE /sessions/{id}. The session and its history
// are released.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset handles POST /sessions/{id}/reset. History is cleared.
func (h *SessionsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_session"
	if err := h.deps.ResetSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSort handles POST /sessions/{id}/sort.
func (h *SessionsHandler) HandleSort(w http.ResponseWriter, r *http.Request) {
	const op = "api.sort_teams"
	var req types.SortRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSortBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.SortTeams(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory handles GET /sessions/{id}/history.
func (h *SessionsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_history"
	id := r.PathValue("id")
	entries, err := h.deps.History(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, Entries: entries})
}

// HandleNotices handles GET /sessions/{id}/notices.
func (h *SessionsHandler) HandleNotices(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_notices"
	id := r.PathValue("id")
	notices, err := h.deps.Notices(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, noticesResponse{SessionID: id, Notices: notices})
}
