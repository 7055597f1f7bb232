package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/dmitrymomot/keymeter/pkg/billing"
)

const stripeSecret = "whsec_test_secret"

func stripeEvent(t *testing.T, eventType string, metadata map[string]string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_test_1",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_test_1",
				"object":   "checkout.session",
				"metadata": metadata,
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func signStripe(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(params)
	sess, _ := args.Get(0).(*stripe.CheckoutSession)
	return sess, args.Error(1)
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	p := billing.NewStripeProvider(billing.StripeConfig{WebhookSecret: stripeSecret})
	ctx := context.Background()

	t.Run("completed checkout carries the api key", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "checkout.session.completed", map[string]string{"api_key": " key_abc "})

		event, err := p.ParseWebhook(ctx, payload, signStripe(payload, stripeSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventPaymentCompleted, event.Type)
		assert.Equal(t, "checkout.session.completed", event.ProviderEvent)
		assert.Equal(t, "evt_test_1", event.ID)
		assert.Equal(t, "key_abc", event.APIKey)
	})

	t.Run("completed checkout without metadata", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "checkout.session.completed", nil)

		event, err := p.ParseWebhook(ctx, payload, signStripe(payload, stripeSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventPaymentCompleted, event.Type)
		assert.Empty(t, event.APIKey)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "invoice.paid", map[string]string{"api_key": "key_abc"})

		event, err := p.ParseWebhook(ctx, payload, signStripe(payload, stripeSecret))
		require.NoError(t, err)
		assert.Equal(t, billing.EventIgnored, event.Type)
		assert.Equal(t, "invoice.paid", event.ProviderEvent)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "checkout.session.completed", map[string]string{"api_key": "key_abc"})

		_, err := p.ParseWebhook(ctx, payload, signStripe(payload, "whsec_other"))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "checkout.session.completed", map[string]string{"api_key": "key_abc"})
		sig := signStripe(payload, stripeSecret)
		tampered := stripeEvent(t, "checkout.session.completed", map[string]string{"api_key": "key_evil"})

		_, err := p.ParseWebhook(ctx, tampered, sig)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		payload := stripeEvent(t, "checkout.session.completed", nil)

		_, err := p.ParseWebhook(ctx, payload, "")
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("no secret configured", func(t *testing.T) {
		t.Parallel()
		unconfigured := billing.NewStripeProvider(billing.StripeConfig{})
		payload := stripeEvent(t, "checkout.session.completed", nil)

		_, err := unconfigured.ParseWebhook(ctx, payload, signStripe(payload, stripeSecret))
		assert.ErrorIs(t, err, billing.ErrWebhookSecretMissing)
		assert.ErrorIs(t, err, billing.ErrUnconfigured)
	})
}

func TestStripeProvider_CreateCheckoutLink(t *testing.T) {
	t.Parallel()

	req := billing.CheckoutRequest{
		APIKey:     "key_abc",
		SuccessURL: "https://keymeter.test/billing/success?api_key=key_abc",
		CancelURL:  "https://keymeter.test/billing/cancel",
	}

	t.Run("creates subscription session", func(t *testing.T) {
		t.Parallel()

		sessions := &mockSessions{}
		sessions.On("New", mock.MatchedBy(func(p *stripe.CheckoutSessionParams) bool {
			return *p.Mode == string(stripe.CheckoutSessionModeSubscription) &&
				len(p.LineItems) == 1 &&
				*p.LineItems[0].Price == "price_pro" &&
				*p.LineItems[0].Quantity == 1 &&
				*p.SuccessURL == req.SuccessURL &&
				*p.CancelURL == req.CancelURL &&
				p.Metadata["api_key"] == "key_abc" &&
				p.SubscriptionData.Metadata["api_key"] == "key_abc" &&
				p.Context != nil
		})).Return(&stripe.CheckoutSession{
			ID:        "cs_test_1",
			URL:       "https://checkout.stripe.com/c/pay/cs_test_1",
			ExpiresAt: 1700000000,
		}, nil).Once()

		p := billing.NewStripeProvider(
			billing.StripeConfig{ProPriceID: "price_pro"},
			billing.WithCheckoutSessions(sessions),
		)
		link, err := p.CreateCheckoutLink(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", link.SessionID)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", link.URL)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), link.ExpiresAt)
		sessions.AssertExpectations(t)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		sessions := &mockSessions{}
		sessions.On("New", mock.Anything).Return(nil, errors.New("card declined")).Once()

		p := billing.NewStripeProvider(
			billing.StripeConfig{ProPriceID: "price_pro"},
			billing.WithCheckoutSessions(sessions),
		)
		_, err := p.CreateCheckoutLink(context.Background(), req)
		assert.ErrorIs(t, err, billing.ErrProvider)
	})

	t.Run("missing secret key", func(t *testing.T) {
		t.Parallel()
		p := billing.NewStripeProvider(billing.StripeConfig{ProPriceID: "price_pro"})
		_, err := p.CreateCheckoutLink(context.Background(), req)
		assert.ErrorIs(t, err, billing.ErrMissingAPIKey)
		assert.ErrorIs(t, err, billing.ErrUnconfigured)
	})

	t.Run("missing price", func(t *testing.T) {
		t.Parallel()
		p := billing.NewStripeProvider(billing.StripeConfig{}, billing.WithCheckoutSessions(&mockSessions{}))
		assert.ErrorIs(t, p.CheckoutReady(), billing.ErrMissingPriceID)
	})
}
