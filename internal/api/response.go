package api

import (
	"encoding/json"
	"net/http"

	"howfar/backend/internal/logging"
)

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError sends a JSON error payload with the given status.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorBody{Error: message})
}
