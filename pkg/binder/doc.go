// Package binder populates request structs from HTTP requests.
//
// Each binder handles one source and reads only its own struct tag:
//
//	type UsageRequest struct {
//		APIKey string `path:"api_key"`
//		Day    string `query:"day"`
//	}
//
//	r.Get("/keys/{api_key}/usage", handler.Wrap(h,
//		handler.WithBinders[handler.Context, UsageRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
//
// Binders return ErrBinderNotApplicable when the request carries nothing
// for them, so callers can chain several binders and skip the empty ones.
package binder
