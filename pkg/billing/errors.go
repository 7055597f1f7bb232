package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnconfigured marks operations that need provider credentials the
	// process was started without.
	ErrUnconfigured = errors.New("billing provider not configured")

	ErrMissingAPIKey        = fmt.Errorf("%w: missing secret api key", ErrUnconfigured)
	ErrMissingPriceID       = fmt.Errorf("%w: missing pro price id", ErrUnconfigured)
	ErrWebhookSecretMissing = fmt.Errorf("%w: missing webhook secret", ErrUnconfigured)

	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidPayload     = errors.New("invalid webhook payload")
	ErrBlankKey           = errors.New("api key is required")
	ErrNoCheckoutURL      = errors.New("no checkout url returned from provider")
	ErrProvider           = errors.New("billing provider error")
	ErrInvalidEnvironment = errors.New("invalid billing provider environment")
	ErrUnknownProvider    = errors.New("unknown billing provider")
)
