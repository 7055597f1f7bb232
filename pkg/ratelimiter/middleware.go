package ratelimiter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the bucket key from a request.
type KeyFunc func(r *http.Request) string

// ErrorFunc renders a denied or failed request.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware takes one token per request from the bucket named by keyFunc.
// Denied requests get a Retry-After header and onError receives an error
// wrapping ErrRateLimited. Requests without a key are let through.
func Middleware(b *Bucket, keyFunc KeyFunc, onError ErrorFunc) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), key)
			if err != nil {
				onError(w, r, err)
				return
			}

			if !res.Allowed() {
				retry := max(1, int(res.RetryAfter(time.Now()).Round(time.Second).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				onError(w, r, fmt.Errorf("%w: retry in %ds", ErrRateLimited, retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
