// Package requesttime pins a single "now" per HTTP request so expiry checks
// and audit timestamps inside one request agree.
package requesttime

import (
	"net/http"
	"time"

	"spverifier/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
