package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpilot/internal/indicators"
	"github.com/wonny/stockpilot/internal/marketdata"
	"github.com/wonny/stockpilot/internal/sentiment"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
)

// Indicator lookback bounds, in trading days
const (
	DefaultIndicatorDays = 250
	MaxIndicatorDays     = 1000
)

// SentimentReporter produces a sentiment report for a symbol
type SentimentReporter interface {
	Report(ctx context.Context, symbol string) (*sentiment.Report, error)
}

// StockHandler handles per-symbol endpoints
type StockHandler struct {
	sentiment SentimentReporter
	candles   marketdata.CandleSource
	sessions  *session.Manager
	logger    *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(reporter SentimentReporter, candles marketdata.CandleSource, sessions *session.Manager, log *logger.Logger) *StockHandler {
	return &StockHandler{
		sentiment: reporter,
		candles:   candles,
		sessions:  sessions,
		logger:    log.Component("api.stock"),
	}
}

// Sentiment handles GET /api/stocks/{symbol}/sentiment
func (h *StockHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	symbol, ok := normalizeSymbol(mux.Vars(r)["symbol"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	report, err := h.sentiment.Report(r.Context(), symbol)
	if err != nil {
		h.logger.WithContext(r.Context()).WithField("symbol", symbol).WithError(err).Warn("Sentiment unavailable")
		respondError(w, http.StatusBadGateway, "news is currently unavailable")
		return
	}

	gated := !sess.Allows(session.FeatureAdvancedSentiment)
	if gated {
		report = withoutReasoning(report)
	}

	h.sessions.Track(r.Context(), sess, func(u *session.Usage) { u.SentimentChecks++ })

	resp := map[string]interface{}{
		"report": report,
		"gated":  gated,
	}
	if gated {
		resp["upgrade"] = session.UpgradeHint(session.FeatureAdvancedSentiment)
	}
	respondJSON(w, http.StatusOK, resp)
}

// withoutReasoning copies report with per-headline reasoning removed
func withoutReasoning(report *sentiment.Report) *sentiment.Report {
	cp := *report
	cp.Headlines = make([]sentiment.HeadlineScore, len(report.Headlines))
	for i, hs := range report.Headlines {
		hs.Reasoning = ""
		cp.Headlines[i] = hs
	}
	return &cp
}

// Indicators handles GET /api/stocks/{symbol}/indicators?days=&include=advanced
// free 플랜: SMA/RSI 만, basic 이상: Bollinger/MACD 포함
// include=advanced 를 명시했는데 플랜에 없으면 403
func (h *StockHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	symbol, ok := normalizeSymbol(mux.Vars(r)["symbol"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	advanced := sess.Allows(session.FeatureAdvancedTechnical)
	if r.URL.Query().Get("include") == "advanced" && !advanced {
		respondGated(w, session.FeatureAdvancedTechnical)
		return
	}

	days := DefaultIndicatorDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxIndicatorDays {
			respondError(w, http.StatusBadRequest, "days must be between 1 and 1000")
			return
		}
		days = n
	}

	candles, err := h.candles.Candles(r.Context(), symbol, days)
	switch {
	case errors.Is(err, marketdata.ErrNotFound), errors.Is(err, marketdata.ErrNoCandles):
		respondError(w, http.StatusNotFound, "no price history for "+symbol)
		return
	case err != nil:
		h.logger.WithContext(r.Context()).WithField("symbol", symbol).WithError(err).Warn("Candles unavailable")
		respondError(w, http.StatusBadGateway, "price history is currently unavailable")
		return
	}

	snapshot := indicators.Compute(marketdata.Closes(candles))
	if !advanced {
		snapshot = snapshot.Basic()
	}

	h.sessions.Track(r.Context(), sess, func(u *session.Usage) { u.IndicatorViews++ })

	resp := map[string]interface{}{
		"symbol":     symbol,
		"days":       days,
		"indicators": snapshot,
		"gated":      !advanced,
	}
	if !advanced {
		resp["upgrade"] = session.UpgradeHint(session.FeatureAdvancedTechnical)
	}
	respondJSON(w, http.StatusOK, resp)
}
