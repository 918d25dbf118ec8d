package testutil

import (
	"net/http"

	id "timeclock/pkg/domain"
	authmw "timeclock/pkg/platform/middleware/auth"
	"timeclock/pkg/requestcontext"
)

// WithUser injects an authenticated user into the request context, simulating
// what the auth middleware does for a valid bearer token.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRole injects a role into the request context alongside the user.
func WithRole(req *http.Request, userID id.UserID, role string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = authmw.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRequestID injects a request ID, matching the request middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
