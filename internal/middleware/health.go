package middleware

import (
	"net/http"
)

// HealthStatus is the payload of the root health endpoint
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthHandler answers with a fixed status. It never consults the remote
// function, so it reports ok even while the analysis backend is down.
func HealthHandler(message string) http.HandlerFunc {
	body := HealthStatus{Status: "ok", Message: message}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	}
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
