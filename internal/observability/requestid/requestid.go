// Package requestid threads a correlation id through context.Context and
// the HTTP request/response headers, so every log line inside one API
// request or one batch-component run (an edition run, a summarize batch)
// carries the same id.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	contextKeyID contextKey = "request_id"
	// Header is the HTTP header carrying the request id in both directions.
	Header = "X-Request-ID"
)

// FromContext returns the request id stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyID).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyID, id)
}

// New generates a fresh request id.
func New() string {
	return uuid.New().String()
}

// Middleware propagates an inbound X-Request-ID header or generates a new
// one, attaches it to the response header and the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = New()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
