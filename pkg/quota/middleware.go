package quota

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// KeyFunc extracts the API key from a request.
type KeyFunc func(r *http.Request) string

// FromQuery reads the key from a query parameter.
func FromQuery(param string) KeyFunc {
	return func(r *http.Request) string {
		return r.URL.Query().Get(param)
	}
}

// FromHeader reads the key from a header. A "Bearer " prefix is stripped.
func FromHeader(header string) KeyFunc {
	return func(r *http.Request) string {
		v := strings.TrimSpace(r.Header.Get(header))
		if after, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return v
	}
}

// FirstOf returns the first non-empty key produced by fns.
func FirstOf(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range fns {
			if k := fn(r); k != "" {
				return k
			}
		}
		return ""
	}
}

// ErrorFunc renders a failed check.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware runs CheckAndCount for every request and stores the Result in
// the request context. Failures are passed to onError and stop the chain.
func Middleware(e *Enforcer, keyFunc KeyFunc, onError ErrorFunc) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorFunc
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := e.CheckAndCount(r.Context(), keyFunc(r))
			if err != nil {
				var exceeded *ExceededError
				if errors.As(err, &exceeded) {
					setHeaders(w, exceeded.Limit, 0, e.Today().Next().Start().Unix())
				}
				onError(w, r, err)
				return
			}

			setHeaders(w, res.LimitToday, res.Remaining(), res.ResetAt().Unix())
			next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), res)))
		})
	}
}

func setHeaders(w http.ResponseWriter, limit, remaining, reset int64) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}

func defaultErrorFunc(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownKey):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInactive):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrQuotaExceeded):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
