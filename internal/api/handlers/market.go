package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/wonny/stockpilot/internal/sentiment"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
)

// MarketReporter produces overall sentiment for a symbol set
type MarketReporter interface {
	Market(ctx context.Context, symbols []string) (*sentiment.MarketReport, error)
}

// MarketHandler handles market-wide endpoints
type MarketHandler struct {
	reporter MarketReporter
	sessions *session.Manager
	logger   *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(reporter MarketReporter, sessions *session.Manager, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		reporter: reporter,
		sessions: sessions,
		logger:   log.Component("api.market"),
	}
}

// Sentiment handles GET /api/market/sentiment?symbols=AAPL,MSFT
// symbols 생략 시 지수 ETF (SPY, QQQ, DIA)
func (h *MarketHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			sym, ok := normalizeSymbol(strings.TrimSpace(part))
			if !ok {
				respondError(w, http.StatusBadRequest, "invalid symbol "+part)
				return
			}
			symbols = append(symbols, sym)
		}
		if len(symbols) > sentiment.MaxMarketSymbols {
			respondError(w, http.StatusBadRequest, "at most 10 symbols")
			return
		}
	}

	report, err := h.reporter.Market(r.Context(), symbols)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("Market sentiment unavailable")
		respondError(w, http.StatusBadGateway, "news is currently unavailable")
		return
	}

	gated := !sess.Allows(session.FeatureAdvancedSentiment)
	if gated {
		for sym, rep := range report.Stocks {
			report.Stocks[sym] = withoutReasoning(rep)
		}
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
