package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

var fallbackErrorResponse = []byte(`{"detail":"An unexpected error occurred"}` + "\n")

// WriteJSON marshals before touching headers so an encoding failure can
// still produce a clean 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("middleware.WriteJSON: failed to marshal response", "error", err)
		body = fallbackErrorResponse
		status = http.StatusInternalServerError
	} else {
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Debug("middleware.WriteJSON: failed to write response", "error", err)
	}
}
