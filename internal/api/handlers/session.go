package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
)

// SessionHandler exposes the caller's session
type SessionHandler struct {
	sessions *session.Manager
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   log.Component("api.session"),
	}
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// SetPlan handles PUT /api/session/plan with {"plan": "..."}
func (h *SessionHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := session.ParsePlan(req.Plan)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sessions.SetPlan(r.Context(), sess, plan); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to change plan")
		respondError(w, http.StatusInternalServerError, "failed to change plan")
		return
	}

	respondJSON(w, http.StatusOK, sess)
}
