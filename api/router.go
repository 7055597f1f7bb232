package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/keymeter/pkg/clientip"
	"github.com/dmitrymomot/keymeter/pkg/handler"
	"github.com/dmitrymomot/keymeter/pkg/httpserver"
	"github.com/dmitrymomot/keymeter/pkg/requestid"
)

// Mountable is a service that serves a subtree of the API.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount.
// Each service is optional and mounted only when provided.
type RouterOptions struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// Readiness checks back /health/ready.
	Readiness []func(context.Context) error

	Keys      Mountable
	Billing   Mountable
	Protected Mountable
	Admin     Mountable
	// Webhooks maps a provider name to its receiver, mounted at /{name}/webhook.
	Webhooks map[string]Mountable
}

// Router builds the root router.
//
// Example:
//
//	r := api.Router(api.RouterOptions{
//	    Logger:    log,
//	    Keys:      api.NewKeyService(keySvc, st, enforcer, eh),
//	    Protected: api.NewProtectedService(enforcer, eh),
//	})
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware, accessLog(log, opts.Metrics), recoverer(log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.RenderError(w, handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.RenderError(w, handler.ErrMethodNotAllowed)
	})

	r.Get("/health", health)
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, opts.Readiness...))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	if opts.Keys != nil {
		r.Mount("/keys", opts.Keys.Handle())
	}
	if opts.Billing != nil {
		r.Mount("/billing", opts.Billing.Handle())
	}
	for name, wh := range opts.Webhooks {
		r.Mount("/"+name+"/webhook", wh.Handle())
	}
	if opts.Protected != nil {
		r.Mount("/protected", opts.Protected.Handle())
	}
	if opts.Admin != nil {
		r.Mount("/admin", opts.Admin.Handle())
	}

	return r
}

type okResponse struct {
	OK bool `json:"ok"`
}

func health(w http.ResponseWriter, r *http.Request) {
	_ = handler.JSON(okResponse{OK: true}).Render(w, r)
}
