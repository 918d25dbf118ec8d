// Package request provides request ID middleware and accessors. Every request
// gets a UUID so log lines, audit events, and error responses can be
// correlated across services and workers.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"timeclock/pkg/requestcontext"
)

// HeaderRequestID is the inbound/outbound header carrying the request ID.
const HeaderRequestID = "X-Request-Id"

// Middleware assigns a request ID (reusing the caller-supplied header when
// present) and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
