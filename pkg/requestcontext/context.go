// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// The acting user's identity and the request time are set by middleware and
// consumed by services. Keeping the package free of net/http lets services
// import only what they need.
//
// Usage in services (read values):
//
//	username := requestcontext.Username(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUsername(ctx, username)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	usernameKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Username retrieves the acting user's login from the context.
// Returns "" if not set.
func Username(ctx context.Context) string {
	if u, ok := ctx.Value(usernameKey{}).(string); ok {
		return u
	}
	return ""
}

// WithUsername injects the acting user's login into the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from the context.
// Falls back to time.Now() for non-HTTP contexts such as workers and tests
// that do not pin a clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request-scoped time. Useful for service unit tests that
// don't run the middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
