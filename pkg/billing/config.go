package billing

import (
	"fmt"
	"strings"
)

// Config selects and configures the billing providers.
type Config struct {
	Provider string `env:"BILLING_PROVIDER" envDefault:"stripe"` // provider used for checkout
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	Stripe StripeConfig
	Paddle PaddleConfig
}

// NewProviders builds the Stripe provider, which always exists so its
// webhook route can answer, and the Paddle provider when Paddle is
// configured or selected. The first element is the checkout provider.
func NewProviders(cfg Config) ([]Provider, error) {
	stripeProvider := NewStripeProvider(cfg.Stripe)

	var paddleProvider *PaddleProvider
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "paddle" || cfg.Paddle.Configured() {
		p, err := NewPaddleProvider(cfg.Paddle)
		if err != nil {
			return nil, err
		}
		paddleProvider = p
	}

	switch name {
	case "", "stripe":
		if paddleProvider != nil {
			return []Provider{stripeProvider, paddleProvider}, nil
		}
		return []Provider{stripeProvider}, nil
	case "paddle":
		return []Provider{paddleProvider, stripeProvider}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
