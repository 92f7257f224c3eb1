package handlers

import (
	"encoding/json"
	"net/http"

	"ffservice/internal/logging"
)

// writeJSON encodes v to w. Headers are already sent at this point, so an
// encoding failure can only be logged.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError sends {"error": message} with statusCode.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONBody(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus sends {"status": status} with statusCode.
func writeJSONStatus(w http.ResponseWriter, statusCode int, status string) {
	writeJSONBody(w, statusCode, map[string]string{"status": status})
}

func writeJSONBody(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}
