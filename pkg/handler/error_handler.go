package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/keymeter/pkg/binder"
	"github.com/dmitrymomot/keymeter/pkg/logger"
	"github.com/dmitrymomot/keymeter/pkg/requestid"
)

// Classifier maps an error to the HTTPError sent to the client.
// It returns false when it does not recognize err.
type Classifier func(err error) (HTTPError, bool)

const genericMessage = "An error occurred processing your request"

// DefaultClassifier recognizes HTTPError values and binder failures.
// Everything else becomes a 500 with a generic message.
func DefaultClassifier(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return ErrUnsupportedMediaType.WithMessage(err.Error())
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrInvalidQuery),
		errors.Is(err, binder.ErrInvalidPath):
		return ErrBadRequest.WithMessage(err.Error())
	default:
		return ErrInternalServerError.WithMessage(genericMessage)
	}
}

// Classify runs the classifiers in order and falls back to DefaultClassifier.
func Classify(err error, classifiers ...Classifier) HTTPError {
	for _, c := range classifiers {
		if e, ok := c(err); ok {
			return e
		}
	}
	return DefaultClassifier(err)
}

// NewErrorHandler builds an ErrorHandler that logs the failure and renders
// the JSON error envelope. Client errors are logged at warn level, server
// errors at error level.
func NewErrorHandler(log *slog.Logger, classifiers ...Classifier) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := Classify(err, classifiers...)

		level := slog.LevelError
		if info.Code < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.Code),
			slog.String("method", r.Method),
			logger.Component("error_handler"),
		)

		RenderError(ctx.ResponseWriter(), info)
	}
}
