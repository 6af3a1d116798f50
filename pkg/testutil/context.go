package testutil

import (
	"net/http"
	"time"

	"leadbook/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRequestTime pins the request clock, as the requesttime middleware would.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithAuth adds the user and a fixed request time. Empty userID is skipped.
func WithAuth(req *http.Request, userID string, now time.Time) *http.Request {
	if userID != "" {
		req = WithUserID(req, userID)
	}
	return WithRequestTime(req, now)
}
