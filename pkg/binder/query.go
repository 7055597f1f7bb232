package binder

import "net/http"

// Query binds URL query parameters using the `query` struct tag.
//
//	type PingRequest struct {
//		APIKey string `query:"api_key"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		if len(values) == 0 {
			return ErrBinderNotApplicable
		}
		return bindToStruct(v, "query", values, ErrInvalidQuery)
	}
}
