package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/stockpilot/internal/favorites"
	"github.com/wonny/stockpilot/pkg/logger"
)

// FavoriteHandler handles the watchlist endpoints
type FavoriteHandler struct {
	store  favorites.Store
	quotes QuoteSource
	logger *logger.Logger
}

// NewFavoriteHandler creates a new favorites handler
func NewFavoriteHandler(store favorites.Store, quotes QuoteSource, log *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		store:  store,
		quotes: quotes,
		logger: log.Component("api.favorites"),
	}
}

// List handles GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	list, err := h.store.List(r.Context(), sess.ID)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to load favorites")
		respondError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(list),
		"favorites": list,
	})
}

// Add handles PUT /api/favorites/{symbol}: 201 when added, 200 when present
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	symbol, ok := normalizeSymbol(mux.Vars(r)["symbol"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	rec, ok := lookupSymbol(w, r, h.quotes, h.logger, symbol)
	if !ok {
		return
	}

	fav := favorites.Favorite{SessionID: sess.ID, Symbol: symbol, Name: rec.Name}
	added, err := h.store.Add(r.Context(), fav)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to add favorite")
		respondError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]interface{}{
		"symbol": symbol,
		"name":   rec.Name,
		"added":  added,
	})
}

// Remove handles DELETE /api/favorites/{symbol}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	symbol, ok := normalizeSymbol(mux.Vars(r)["symbol"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	removed, err := h.store.Remove(r.Context(), sess.ID, symbol)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Failed to remove favorite")
		respondError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, symbol+" is not a favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
