// Package api exposes the bot's optional HTTP endpoints.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-bot/internal/api/handlers"
	"github.com/dvloznov/expense-bot/internal/api/middleware"
)

// NewRouter wires the health and preview endpoints with the standard middleware.
func NewRouter(health *handlers.HealthHandler, preview *handlers.PreviewHandler, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			health.Health(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/expenses/preview", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			preview.Preview(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	var handler http.Handler = mux
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.RequestID(handler)
	return handler
}
