package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/wonny/stockpilot/internal/session"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondGated answers 403 with the upgrade hint for feature
func respondGated(w http.ResponseWriter, feature session.Feature) {
	respondJSON(w, http.StatusForbidden, map[string]string{
		"error":   "feature not included in your plan",
		"feature": string(feature),
		"upgrade": session.UpgradeHint(feature),
	})
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z.\-]{0,9}$`)

// normalizeSymbol validates and upper-cases a ticker path parameter
func normalizeSymbol(raw string) (string, bool) {
	if !symbolPattern.MatchString(raw) {
		return "", false
	}
	return strings.ToUpper(raw), true
}

// currentSession returns the session attached by the session middleware
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := session.FromContext(r.Context())
	if s == nil {
		respondError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return s, true
}
