package handlers

import (
	"encoding/json"
	"net/http"
)

// HandlePing handles /ping endpoint
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// HealthFunc reports service details included in /health.
type HealthFunc func() any

// HandleHealth returns a /health handler. The status is always "ok" while
// the process serves requests; details comes from fn when set.
func HandleHealth(fn HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if fn != nil {
			body["details"] = fn()
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(body)
	}
}
