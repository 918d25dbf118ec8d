// Package admin guards administrative endpoints (zone registry management)
// behind a shared token supplied out of band.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "timeclock/pkg/platform/middleware/request"
)

// RequireAdminToken rejects requests whose X-Admin-Token header does not match
// the expected value. Comparison is constant-time to prevent timing attacks.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
