package testutil

import (
	"context"
	"net/http"
	"time"

	"fiscus/pkg/domain"
	"fiscus/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context. This simulates
// what the auth middleware would do for authenticated requests.
func WithCaller(req *http.Request, caller domain.Caller) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), caller)
	return req.WithContext(ctx)
}

// CallerContext returns a context carrying the given caller identity, for
// driving services directly in tests.
func CallerContext(caller domain.Caller) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

// FrozenContext returns a caller context with a pinned clock so timestamps in
// assertions are deterministic.
func FrozenContext(caller domain.Caller, at time.Time) context.Context {
	return requestcontext.WithTime(CallerContext(caller), at)
}
