package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpilot/internal/api/handlers"
	"github.com/wonny/stockpilot/internal/session"
	"github.com/wonny/stockpilot/pkg/logger"
	"github.com/wonny/stockpilot/pkg/redis"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Screen    *handlers.ScreenHandler
	Stock     *handlers.StockHandler
	Market    *handlers.MarketHandler
	Alerts    *handlers.AlertHandler
	Favorites *handlers.FavoriteHandler
	Session   *handlers.SessionHandler
}

// RouterDeps are the shared middleware dependencies
type RouterDeps struct {
	Sessions         *session.Manager
	Limiter          *redis.RateLimiter
	ScreenRatePerMin int
	// ScreenTimeout bounds one screen request; the handler answers 504
	ScreenTimeout time.Duration
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(sessionMiddleware(deps.Sessions, log))

	// Screening (세션별 레이트 리밋)
	limited := rateLimitMiddleware(deps.Limiter, deps.ScreenRatePerMin, log)
	bounded := timeoutMiddleware(deps.ScreenTimeout)
	api.Handle("/screen", limited(bounded(http.HandlerFunc(h.Screen.Screen)))).Methods("POST")
	api.HandleFunc("/screen/history", h.Screen.History).Methods("GET")

	// Per-symbol
	api.HandleFunc("/stocks/{symbol}/sentiment", h.Stock.Sentiment).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/indicators", h.Stock.Indicators).Methods("GET")
	api.HandleFunc("/market/sentiment", h.Market.Sentiment).Methods("GET")

	// Price alerts
	api.HandleFunc("/alerts", h.Alerts.List).Methods("GET")
	api.HandleFunc("/alerts", h.Alerts.Create).Methods("POST")
	api.HandleFunc("/alerts/stream", h.Alerts.Stream).Methods("GET")
	api.HandleFunc("/alerts/{id:[0-9]+}", h.Alerts.Delete).Methods("DELETE")

	// Watchlist
	api.HandleFunc("/favorites", h.Favorites.List).Methods("GET")
	api.HandleFunc("/favorites/{symbol}", h.Favorites.Add).Methods("PUT")
	api.HandleFunc("/favorites/{symbol}", h.Favorites.Remove).Methods("DELETE")

	// Session
	api.HandleFunc("/session", h.Session.Get).Methods("GET")
	api.HandleFunc("/session/plan", h.Session.SetPlan).Methods("PUT")

	// Apply middleware (바깥쪽부터: request id → logging → recovery)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockpilot-api",
	})
}
