package middleware

import (
	"net/http"

	"github.com/ZerkerEOD/slotban/pkg/debug"
	"github.com/gorilla/mux"
)

/*
 * CORS returns middleware that sets cross-origin headers for the dashboard.
 *
 * Configuration:
 *   - allowedOrigin comes from CORS_ALLOWED_ORIGIN
 *   - "*" allows any origin; credentials are only allowed for an explicit origin
 *
 * Preflight OPTIONS requests are answered directly with 200.
 */
func CORS(allowedOrigin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if allowedOrigin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				debug.Debug("Handling OPTIONS preflight request from origin: %s", r.Header.Get("Origin"))
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
