package main

import (
	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/httpserver"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/ratelimiter"
	"github.com/dmitrymomot/keymeter/store"
)

// Config is built once at startup and passed down explicitly.
type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppName    string `env:"APP_NAME" envDefault:"keymeter"`
	LogLevel   string `env:"LOG_LEVEL"` // overrides the APP_ENV preset
	AdminToken string `env:"ADMIN_TOKEN"`

	HTTP    httpserver.Config
	Storage store.Config
	Billing billing.Config
	Limits  quota.Limits

	// KeyThrottle limits POST /keys/create per client IP.
	KeyThrottle ratelimiter.Config
}
