package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/contracts"
	"github.com/wonny/stockpilot/internal/marketdata"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
)

// QuoteSource looks up the current snapshot of one symbol
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (*contracts.InstrumentRecord, error)
}

// AlertStream upgrades a request into a live trigger stream
type AlertStream interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID string) error
}

// AlertHandler handles price alert endpoints
// ⭐ SSOT: 가격 알림 API 핸들러는 이 구조체에서만
type AlertHandler struct {
	store    alerts.Store
	quotes   QuoteSource
	stream   AlertStream
	sessions *session.Manager
	logger   *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(store alerts.Store, quotes QuoteSource, stream AlertStream, sessions *session.Manager, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		store:    store,
		quotes:   quotes,
		stream:   stream,
		sessions: sessions,
		logger:   log.Component("api.alerts"),
	}
}

// CreateAlertRequest is the body of POST /api/alerts
type CreateAlertRequest struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Direction   string  `json:"direction"`
	Email       string  `json:"email,omitempty"`
}

// List handles GET /api/alerts?active=true
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := h.store.List(r.Context(), sess.ID, activeOnly)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to load alerts")
		respondError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(list),
		"alerts": list,
		"limit":  sess.Plan.AlertLimit(),
	})
}

// Create handles POST /api/alerts
// 플랜별 활성 알림 한도 초과 시 403 + 업그레이드 안내
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol, ok := normalizeSymbol(req.Symbol)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	if req.TargetPrice <= 0 {
		respondError(w, http.StatusBadRequest, "target_price must be positive")
		return
	}
	direction, err := alerts.ParseDirection(req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email != "" {
		addr, err := mail.ParseAddress(req.Email)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid email")
			return
		}
		req.Email = addr.Address
	}

	if limit := sess.Plan.AlertLimit(); limit > 0 {
		active, err := h.store.CountActive(r.Context(), sess.ID)
		if err != nil {
			h.logger.WithContext(r.Context()).WithError(err).Error("Failed to count alerts")
			respondError(w, http.StatusInternalServerError, "failed to create alert")
			return
		}
		if active >= limit {
			respondGated(w, session.FeatureUnlimitedAlerts)
			return
		}
	}

	rec, ok := h.lookup(w, r, symbol)
	if !ok {
		return
	}

	alert := &alerts.Alert{
		SessionID:   sess.ID,
		Symbol:      symbol,
		TargetPrice: req.TargetPrice,
		Direction:   direction,
		Email:       req.Email,
	}
	if err := h.store.Create(r.Context(), alert); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to create alert")
		respondError(w, http.StatusInternalServerError, "failed to create alert")
		return
	}

	resp := map[string]interface{}{"alert": alert}
	if rec.Price != nil {
		resp["current_price"] = *rec.Price
		// 이미 조건을 만족하면 다음 점검 때 바로 발동
		resp["already_crossed"] = alert.Crossed(*rec.Price)
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Delete handles DELETE /api/alerts/{id}
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	switch err := h.store.Delete(r.Context(), sess.ID, id); {
	case errors.Is(err, alerts.ErrNotFound):
		respondError(w, http.StatusNotFound, "alert not found")
	case err != nil:
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to delete alert")
		respondError(w, http.StatusInternalServerError, "failed to delete alert")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Stream handles GET /api/alerts/stream (WebSocket)
func (h *AlertHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.stream.Serve(w, r, sess.ID); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Debug("Alert stream upgrade failed")
	}
}

// lookup confirms the symbol exists and returns its snapshot
func (h *AlertHandler) lookup(w http.ResponseWriter, r *http.Request, symbol string) (*contracts.InstrumentRecord, bool) {
	return lookupSymbol(w, r, h.quotes, h.logger, symbol)
}

func lookupSymbol(w http.ResponseWriter, r *http.Request, quotes QuoteSource, log *logger.Logger, symbol string) (*contracts.InstrumentRecord, bool) {
	rec, err := quotes.Fetch(r.Context(), symbol)
	switch {
	case errors.Is(err, marketdata.ErrNotFound):
		respondError(w, http.StatusNotFound, "unknown symbol "+symbol)
		return nil, false
	case err != nil:
		log.WithContext(r.Context()).WithField("symbol", symbol).WithError(err).Warn("Quote unavailable")
		respondError(w, http.StatusBadGateway, "market data is currently unavailable")
		return nil, false
	}
	return rec, true
}
