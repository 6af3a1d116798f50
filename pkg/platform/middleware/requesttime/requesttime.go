// Package requesttime provides middleware for request-scoped time.
// Every timestamp written while serving one request (updatedAt, history
// changedAt) comes from the same instant.
package requesttime

import (
	"net/http"
	"time"

	"leadbook/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
