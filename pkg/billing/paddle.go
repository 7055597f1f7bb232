package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

const paddleTransactionCompleted = "transaction.completed"

// PaddleConfig holds Paddle credentials. Like StripeConfig, missing values
// only disable the operations that need them.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	ProPriceID    string `env:"PADDLE_PRO_PRICE_ID"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	CheckoutURL   string `env:"PADDLE_CHECKOUT_URL"` // approved default payment link page, optional
}

// Configured reports whether any Paddle credential is set.
func (c PaddleConfig) Configured() bool {
	return c.APIKey != "" || c.WebhookSecret != ""
}

// PaddleProvider implements Provider on the Paddle Billing SDK.
type PaddleProvider struct {
	cfg      PaddleConfig
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider fails only for an unknown environment; missing
// credentials surface as ErrUnconfigured from the operations.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	p := &PaddleProvider{cfg: cfg}

	if cfg.APIKey != "" {
		var (
			sdk *paddle.SDK
			err error
		)
		switch strings.ToLower(cfg.Environment) {
		case "sandbox":
			sdk, err = paddle.NewSandbox(cfg.APIKey)
		case "production", "":
			sdk, err = paddle.New(cfg.APIKey)
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnvironment, cfg.Environment)
		}
		if err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		p.client = sdk
	}

	if cfg.WebhookSecret != "" {
		p.verifier = paddle.NewWebhookVerifier(cfg.WebhookSecret)
	}

	return p, nil
}

func (p *PaddleProvider) Name() string { return "paddle" }

func (p *PaddleProvider) SignatureHeader() string { return "Paddle-Signature" }

func (p *PaddleProvider) CheckoutReady() error {
	if p.client == nil {
		return ErrMissingAPIKey
	}
	if p.cfg.ProPriceID == "" {
		return ErrMissingPriceID
	}
	return nil
}

// CreateCheckoutLink creates a transaction for the pro price with the API
// key in custom_data and returns its hosted checkout URL.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := p.CheckoutReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrBlankKey
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  p.cfg.ProPriceID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{MetadataKey: req.APIKey},
	}
	if p.cfg.CheckoutURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(p.cfg.CheckoutURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *tx.Checkout.URL,
		SessionID: tx.ID,
		// Paddle checkout links stay valid for a day.
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}, nil
}

type paddleNotification struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ID         string         `json:"id"`
		CustomData map[string]any `json:"custom_data"`
	} `json:"data"`
}

// ParseWebhook verifies the Paddle-Signature header (ts=...;h1=...) and
// extracts the API key from completed transactions.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if p.verifier == nil {
		return nil, ErrWebhookSecretMissing
	}

	// The SDK verifier reads the signature and body from a request.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/paddle/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	req.Header.Set(p.SignatureHeader(), signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	event := &Event{
		Type:          EventIgnored,
		ProviderEvent: n.EventType,
		ID:            n.EventID,
	}
	if n.EventType != paddleTransactionCompleted {
		return event, nil
	}

	event.Type = EventPaymentCompleted
	if key, ok := n.Data.CustomData[MetadataKey].(string); ok {
		event.APIKey = strings.TrimSpace(key)
	}
	return event, nil
}
