package billing

import (
	"context"
	"time"
)

// MetadataKey is the metadata (Stripe) or custom data (Paddle) field that
// carries the API key through checkout and back in webhooks.
const MetadataKey = "api_key"

// Provider is a payment processor integration.
type Provider interface {
	// Name identifies the provider in logs, metrics and routes.
	Name() string

	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string

	// CheckoutReady reports whether checkout links can be created.
	// It returns an error wrapping ErrUnconfigured otherwise.
	CheckoutReady() error

	// CreateCheckoutLink creates a hosted checkout for the pro plan.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook verifies the signature over the raw payload and
	// classifies the event. It returns ErrWebhookSecretMissing when no
	// secret is configured and ErrInvalidSignature when verification fails.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// CheckoutRequest describes a pro plan checkout for one API key.
type CheckoutRequest struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// EventType is the normalized webhook event classification.
type EventType string

const (
	// EventPaymentCompleted is the only event that changes state.
	EventPaymentCompleted EventType = "payment_completed"
	EventIgnored          EventType = "ignored"
)

// Event is a verified webhook delivery.
type Event struct {
	Type          EventType
	ProviderEvent string // provider event name, e.g. "checkout.session.completed"
	ID            string // provider event id
	APIKey        string // empty when the metadata carried no key
}
