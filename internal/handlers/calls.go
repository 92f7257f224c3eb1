package handlers

import (
	"net/http"
	"strconv"

	"ffservice/internal/database"
	"ffservice/internal/logging"
)

const defaultCallsLimit = 50

// CallsResponse is the body of GET /api/calls.
type CallsResponse struct {
	Calls []database.Call `json:"calls"`
	Count int             `json:"count"`
	Limit int             `json:"limit"`
}

// ListCalls returns the most recent calls, newest first. The optional limit
// query parameter must be a positive integer and is capped at
// database.MaxRecentCalls.
func (h *Handlers) ListCalls(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "call history is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultCallsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, database.MaxRecentCalls)
	}

	calls, err := h.history.RecentCalls(r.Context(), limit)
	if err != nil {
		logging.Error("failed to list calls: %v", err)
		writeJSONError(w, "failed to list calls", http.StatusInternalServerError)
		return
	}
	if calls == nil {
		calls = []database.Call{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, CallsResponse{Calls: calls, Count: len(calls), Limit: limit})
}
