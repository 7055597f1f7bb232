// Package handler provides typed HTTP handlers with JSON responses.
//
// A HandlerFunc receives a Context and a request value populated by binders,
// and returns a Response:
//
//	type statusRequest struct {
//		APIKey string `path:"api_key"`
//	}
//
//	func keyStatus(ctx handler.Context, req statusRequest) handler.Response {
//		rec, err := svc.Get(ctx, req.APIKey)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(rec)
//	}
//
//	r.Get("/keys/{api_key}", handler.Wrap(keyStatus,
//		handler.WithBinders[handler.Context, statusRequest](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, statusRequest](errHandler),
//	))
//
// # Errors
//
// Binding failures, Error responses and render failures are passed to the
// configured ErrorHandler. NewErrorHandler builds one that logs the failure
// with the request id and writes the JSON error envelope:
//
//	{"ok": false, "error": {"code": "not_found", "message": "Unknown api_key"}}
//
// A Classifier maps domain errors to HTTPError values. Unclassified errors
// are answered with a generic 500 so internal details never leak.
package handler
