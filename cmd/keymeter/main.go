package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/keymeter/api"
	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/config"
	"github.com/dmitrymomot/keymeter/pkg/httpserver"
	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/logger"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/ratelimiter"
	"github.com/dmitrymomot/keymeter/pkg/requestid"
	"github.com/dmitrymomot/keymeter/store"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(requestid.LogExtractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	st, err := store.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srvOpts := []httpserver.Option{
		httpserver.WithLogger(log),
		httpserver.WithCloser("store", st.Close),
	}

	var throttle *ratelimiter.Bucket
	if cfg.KeyThrottle.Enabled() {
		limiter := ratelimiter.NewMemoryStore()
		if throttle, err = ratelimiter.NewBucket(limiter, cfg.KeyThrottle); err != nil {
			limiter.Close()
			_ = st.Close(ctx)
			return err
		}
		srvOpts = append(srvOpts, httpserver.WithCloser("key throttle", func(context.Context) error {
			limiter.Close()
			return nil
		}))
	} else {
		log.Warn("key issuance is not throttled: KEY_CREATE_BURST is 0")
	}

	router, err := newRouter(cfg, st, throttle, reg, log)
	if err != nil {
		_ = st.Close(ctx)
		return err
	}

	return httpserver.NewFromConfig(cfg.HTTP, srvOpts...).Run(ctx, router)
}

// newRouter wires the services on top of st. A nil throttle leaves key
// issuance unlimited.
func newRouter(cfg Config, st store.Store, throttle *ratelimiter.Bucket, reg *prometheus.Registry, log *slog.Logger) (http.Handler, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	keySvc := keys.NewService(st)

	enforcer, err := quota.NewEnforcer(keySvc, st, cfg.Limits,
		quota.WithMetrics(quota.NewMetrics(reg)),
		quota.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	providers, err := billing.NewProviders(cfg.Billing)
	if err != nil {
		return nil, err
	}

	var keyOpts []api.KeyServiceOption
	if throttle != nil {
		keyOpts = append(keyOpts, api.WithCreateThrottle(throttle))
	}

	eh := api.NewErrorHandler(log)
	billingMetrics := billing.NewMetrics(reg)

	opts := api.RouterOptions{
		Logger:    log,
		Metrics:   api.NewMetrics(reg),
		Gatherer:  reg,
		Readiness: []func(context.Context) error{st.Ping},
		Keys:      api.NewKeyService(keySvc, st, enforcer, eh, keyOpts...),
		Protected: api.NewProtectedService(enforcer, eh),
		Webhooks:  make(map[string]api.Mountable, len(providers)),
	}

	for i, p := range providers {
		svc := billing.NewService(p, keySvc, cfg.Billing.BaseURL,
			billing.WithLogger(log),
			billing.WithMetrics(billingMetrics),
		)
		if i == 0 {
			opts.Billing = api.NewBillingService(svc, eh)
			log.Info("checkout provider selected", logger.Provider(p.Name()))
		}
		opts.Webhooks[p.Name()] = api.NewWebhookService(svc, eh)
	}

	if cfg.AdminToken != "" {
		opts.Admin = api.NewAdminService(keySvc, cfg.AdminToken, eh)
	} else {
		log.Info("admin routes disabled: ADMIN_TOKEN is not set")
	}

	return api.Router(opts), nil
}
