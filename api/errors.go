package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/handler"
	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/ratelimiter"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

var (
	ErrBillingUnconfigured = handler.NewHTTPError(http.StatusInternalServerError, "billing_unconfigured", "")
	ErrInvalidSignature    = handler.NewHTTPError(http.StatusBadRequest, "invalid_signature", "Invalid webhook signature")
	ErrInvalidPayload      = handler.NewHTTPError(http.StatusBadRequest, "invalid_payload", "Invalid webhook payload")
	ErrPaymentProvider     = handler.NewHTTPError(http.StatusInternalServerError, "payment_provider_error", "Payment provider request failed")
)

// classify maps domain errors to client responses.
func classify(err error) (handler.HTTPError, bool) {
	var exceeded *quota.ExceededError

	switch {
	case errors.As(err, &exceeded):
		return handler.ErrTooManyRequests.WithMessage(fmt.Sprintf(
			"Daily limit exceeded: %d/%d used. Upgrade to PRO.", exceeded.Used, exceeded.Limit,
		)), true
	case errors.Is(err, ratelimiter.ErrRateLimited):
		return handler.ErrTooManyRequests.WithMessage("Too many keys requested. Try again later."), true
	case errors.Is(err, quota.ErrUnknownKey):
		return handler.ErrNotFound.WithMessage("Unknown api_key. Create one first."), true
	case errors.Is(err, keys.ErrNotFound):
		return handler.ErrNotFound.WithMessage("Unknown api_key"), true
	case errors.Is(err, quota.ErrInactive):
		return handler.ErrForbidden.WithMessage("API key is not active."), true
	case errors.Is(err, quota.ErrMissingKey), errors.Is(err, keys.ErrBlankKey),
		errors.Is(err, billing.ErrBlankKey), errors.Is(err, usage.ErrBlankKey):
		return handler.ErrBadRequest.WithMessage("api_key is required"), true
	case errors.Is(err, usage.ErrInvalidDay):
		return handler.ErrBadRequest.WithMessage("day must be formatted as YYYY-MM-DD"), true
	case errors.Is(err, billing.ErrUnconfigured):
		return ErrBillingUnconfigured.WithMessage(err.Error()), true
	case errors.Is(err, billing.ErrInvalidSignature):
		return ErrInvalidSignature, true
	case errors.Is(err, billing.ErrInvalidPayload):
		return ErrInvalidPayload, true
	case errors.Is(err, billing.ErrProvider), errors.Is(err, billing.ErrNoCheckoutURL):
		return ErrPaymentProvider, true
	}
	return handler.HTTPError{}, false
}

// NewErrorHandler returns the error handler shared by every route.
func NewErrorHandler(log *slog.Logger) handler.ErrorHandler[handler.Context] {
	return handler.NewErrorHandler(log, classify)
}

// middlewareErrors adapts an ErrorHandler to plain net/http middleware.
func middlewareErrors(eh handler.ErrorHandler[handler.Context]) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		eh(handler.NewContext(w, r), err)
	}
}
