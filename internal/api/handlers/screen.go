package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/wonny/stockpilot/internal/history"
	"github.com/wonny/stockpilot/internal/pipeline"
	"github.com/wonny/stockpilot/internal/render"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
)

// Request limits
const (
	MaxQueryLength      = 500
	MaxResultLimit      = 100
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// ScreenRunner runs one screening request end to end
type ScreenRunner interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// ScreenHandler handles natural-language screening endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	runner   ScreenRunner
	history  history.Store
	sessions *session.Manager
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(runner ScreenRunner, hist history.Store, sessions *session.Manager, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		runner:   runner,
		history:  hist,
		sessions: sessions,
		logger:   log.Component("api.screen"),
	}
}

// ScreenRequest is the body of POST /api/screen
type ScreenRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Screen handles POST /api/screen
// 해석 불가/결과 없음도 200 + view.kind 로 응답
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if utf8.RuneCountInString(req.Query) > MaxQueryLength {
		respondError(w, http.StatusBadRequest, "query too long (max 500 characters)")
		return
	}
	if req.Limit < 0 || req.Limit > MaxResultLimit {
		respondError(w, http.StatusBadRequest, "limit must be between 0 and 100 (0 = default)")
		return
	}

	run, err := h.runner.Run(r.Context(), pipeline.RunConfig{
		Query:     req.Query,
		SessionID: sess.ID,
		Limit:     req.Limit,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusGatewayTimeout, "screen timed out")
			return
		}
		h.logger.WithContext(r.Context()).WithError(err).Error("Screen run failed")
		respondError(w, http.StatusInternalServerError, "screen failed")
		return
	}

	h.sessions.Track(r.Context(), sess, func(u *session.Usage) { u.Screens++ })
	respondJSON(w, http.StatusOK, render.FromScreen(run.Result))
}

// History handles GET /api/screen/history?limit=
func (h *ScreenHandler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxHistoryLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.history.ListRecent(r.Context(), sess.ID, limit)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to load history")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"count":      len(entries),
		"entries":    entries,
	})
}
