package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// localOrigins are used when no origin is configured: the Vite dev server
// and the preview build.
var localOrigins = []string{"http://localhost:5173", "http://localhost:4173"}

// CORS lets the storefront SPA call the API from its own origin. The cart
// session and request id travel as headers, so both directions are listed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = localOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", IdempotencyKeyHeader, CartSessionHeader, requestIDHeader},
		ExposedHeaders: []string{CartSessionHeader, requestIDHeader, IdempotentReplayed, "Retry-After"},
		MaxAge:         600,
	})
}
