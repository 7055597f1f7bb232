package billing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

const stripeCheckoutCompleted = "checkout.session.completed"

// StripeConfig holds Stripe credentials. Every field is optional at startup;
// the operations that need a missing one fail with ErrUnconfigured.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	ProPriceID    string `env:"STRIPE_PRO_PRICE_ID"`
}

// CheckoutSessionCreator creates Stripe checkout sessions.
// *session.Client from stripe-go satisfies it.
type CheckoutSessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithCheckoutSessions replaces the stripe-go session client.
func WithCheckoutSessions(c CheckoutSessionCreator) StripeOption {
	return func(p *StripeProvider) {
		if c != nil {
			p.sessions = c
		}
	}
}

// StripeProvider implements Provider on stripe-go.
type StripeProvider struct {
	cfg      StripeConfig
	sessions CheckoutSessionCreator
}

func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) *StripeProvider {
	p := &StripeProvider{cfg: cfg}
	if cfg.SecretKey != "" {
		sc := &client.API{}
		sc.Init(cfg.SecretKey, nil)
		p.sessions = sc.CheckoutSessions
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) SignatureHeader() string { return "Stripe-Signature" }

func (p *StripeProvider) CheckoutReady() error {
	if p.sessions == nil {
		return ErrMissingAPIKey
	}
	if p.cfg.ProPriceID == "" {
		return ErrMissingPriceID
	}
	return nil
}

// CreateCheckoutLink creates a subscription-mode checkout session with the
// API key in the session and subscription metadata.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := p.CheckoutReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrBlankKey
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.cfg.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataKey: req.APIKey},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataKey, req.APIKey)

	sess, err := p.sessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	link := &CheckoutLink{URL: sess.URL, SessionID: sess.ID}
	if sess.ExpiresAt > 0 {
		link.ExpiresAt = time.Unix(sess.ExpiresAt, 0).UTC()
	}
	return link, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the API
// key from completed checkout sessions.
func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, ErrWebhookSecretMissing
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isStripeSignatureError(err) {
			return nil, errors.Join(ErrInvalidSignature, err)
		}
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	event := &Event{
		Type:          EventIgnored,
		ProviderEvent: string(evt.Type),
		ID:            evt.ID,
	}
	if evt.Type != stripeCheckoutCompleted {
		return event, nil
	}

	event.Type = EventPaymentCompleted
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return event, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	event.APIKey = strings.TrimSpace(sess.Metadata[MetadataKey])
	return event, nil
}

func isStripeSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
