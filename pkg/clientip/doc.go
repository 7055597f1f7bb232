// Package clientip resolves the client address of a request behind proxies.
//
// GetIP checks CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For and
// X-Real-IP in that order and falls back to RemoteAddr. Only the first
// syntactically valid address is returned; garbage in a header is skipped.
// Middleware stores the result in the request context for later handlers.
package clientip
