package clientip

import (
	"context"
	"net/http"
)

type contextKey struct{}

// WithContext stores ip in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// KeyFunc returns the client address of r, preferring the one resolved by
// Middleware. It fits rate limiter key functions.
func KeyFunc(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}
