package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dmitrymomot/keymeter/pkg/logger"
)

// KeyStore is the part of the key service billing writes to.
type KeyStore interface {
	EnsureExists(ctx context.Context, key string) error
	UpgradeToPro(ctx context.Context, key string) error
}

// Outcome reports what a webhook delivery did.
type Outcome struct {
	Event    Event
	APIKey   string
	Upgraded bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Service creates checkouts and applies payment events for one provider.
type Service struct {
	provider Provider
	keys     KeyStore
	baseURL  string
	metrics  *Metrics
	log      *slog.Logger
}

// NewService panics on nil dependencies so wiring mistakes fail at startup.
// baseURL is the public origin used to build the redirect links.
func NewService(provider Provider, keys KeyStore, baseURL string, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: provider is required")
	}
	if keys == nil {
		panic("billing: key store is required")
	}

	s := &Service{
		provider: provider,
		keys:     keys,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("billing"), logger.Provider(provider.Name()))
	return s
}

// Provider returns the wrapped provider.
func (s *Service) Provider() Provider {
	return s.provider
}

// SuccessURL is where the processor sends the customer after paying.
func (s *Service) SuccessURL(apiKey string) string {
	return s.baseURL + "/billing/success?api_key=" + url.QueryEscape(apiKey)
}

// CancelURL is where the processor sends the customer after abandoning checkout.
func (s *Service) CancelURL() string {
	return s.baseURL + "/billing/cancel"
}

// CreateCheckout returns a hosted checkout link that upgrades apiKey once
// paid. The key is created as free first when it does not exist yet.
//
// Errors: ErrUnconfigured (wrapped), ErrBlankKey, key store errors and
// ErrProvider.
func (s *Service) CreateCheckout(ctx context.Context, apiKey string) (*CheckoutLink, error) {
	name := s.provider.Name()

	if err := s.provider.CheckoutReady(); err != nil {
		s.metrics.checkout(name, resultUnconfigured)
		return nil, err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrBlankKey
	}

	if err := s.keys.EnsureExists(ctx, apiKey); err != nil {
		s.metrics.checkout(name, resultError)
		return nil, err
	}

	link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		APIKey:     apiKey,
		SuccessURL: s.SuccessURL(apiKey),
		CancelURL:  s.CancelURL(),
	})
	if err != nil {
		s.metrics.checkout(name, resultError)
		s.log.ErrorContext(ctx, "checkout creation failed", logger.APIKey(apiKey), logger.Error(err))
		return nil, err
	}

	s.metrics.checkout(name, resultCreated)
	s.log.InfoContext(ctx, "checkout created", logger.APIKey(apiKey), slog.String("session_id", link.SessionID))
	return link, nil
}

// HandlePaymentEvent verifies a webhook delivery and upgrades the key named
// by a completed payment.
//
// Deliveries that fail verification return ErrInvalidSignature or
// ErrInvalidPayload and have no side effects. Store failures are returned
// so the processor retries the delivery.
func (s *Service) HandlePaymentEvent(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	name := s.provider.Name()

	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnconfigured):
			s.metrics.webhook(name, resultUnconfigured)
			s.log.ErrorContext(ctx, "webhook received but no secret is configured")
		case errors.Is(err, ErrInvalidSignature):
			s.metrics.webhook(name, resultInvalidSignature)
			s.log.WarnContext(ctx, "webhook signature rejected", logger.Error(err))
		default:
			s.metrics.webhook(name, resultInvalidPayload)
			s.log.WarnContext(ctx, "webhook payload rejected", logger.Error(err))
		}
		return Outcome{}, err
	}

	out := Outcome{Event: *event, APIKey: event.APIKey}
	log := s.log.With(logger.EventType(event.ProviderEvent), slog.String("event_id", event.ID))

	if event.Type != EventPaymentCompleted {
		s.metrics.webhook(name, resultIgnored)
		log.DebugContext(ctx, "webhook event ignored")
		return out, nil
	}

	if event.APIKey == "" {
		s.metrics.webhook(name, resultMissingKey)
		log.WarnContext(ctx, "payment completed without api key metadata")
		return out, nil
	}

	if err := s.keys.UpgradeToPro(ctx, event.APIKey); err != nil {
		s.metrics.webhook(name, resultError)
		log.ErrorContext(ctx, "plan upgrade failed", logger.APIKey(event.APIKey), logger.Error(err))
		return out, err
	}

	out.Upgraded = true
	s.metrics.webhook(name, resultUpgraded)
	log.InfoContext(ctx, "key upgraded to pro", logger.APIKey(event.APIKey))
	return out, nil
}
