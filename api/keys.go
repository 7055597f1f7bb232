package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keymeter/pkg/binder"
	"github.com/dmitrymomot/keymeter/pkg/clientip"
	"github.com/dmitrymomot/keymeter/pkg/handler"
	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/ratelimiter"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

// KeyService issues keys and reports their status and usage.
type KeyService struct {
	keys         *keys.Service
	ledger       usage.Ledger
	enforcer     *quota.Enforcer
	errorHandler handler.ErrorHandler[handler.Context]
	throttle     *ratelimiter.Bucket
}

// KeyServiceOption configures a KeyService.
type KeyServiceOption func(*KeyService)

// WithCreateThrottle limits key issuance per client IP.
func WithCreateThrottle(b *ratelimiter.Bucket) KeyServiceOption {
	return func(s *KeyService) {
		s.throttle = b
	}
}

func NewKeyService(
	keySvc *keys.Service,
	ledger usage.Ledger,
	enforcer *quota.Enforcer,
	errorHandler handler.ErrorHandler[handler.Context],
	opts ...KeyServiceOption,
) *KeyService {
	s := &KeyService{
		keys:         keySvc,
		ledger:       ledger,
		enforcer:     enforcer,
		errorHandler: errorHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type createKeyRequest struct{}

type createKeyResponse struct {
	APIKey string    `json:"api_key"`
	Plan   keys.Plan `json:"plan"`
}

type keyRequest struct {
	APIKey string `path:"api_key"`
}

type keyStatusResponse struct {
	APIKey   string    `json:"api_key"`
	Plan     keys.Plan `json:"plan"`
	IsActive bool      `json:"is_active"`
}

type usageRequest struct {
	APIKey string `path:"api_key" query:"-"`
	Day    string `query:"day" path:"-"`
}

type usageResponse struct {
	APIKey     string    `json:"api_key"`
	Plan       keys.Plan `json:"plan"`
	Day        usage.Day `json:"day"`
	UsedToday  int64     `json:"used_today"`
	LimitToday int64     `json:"limit_today"`
}

func (s *KeyService) Handle() http.Handler {
	r := chi.NewRouter()

	var create chi.Router = r
	if s.throttle != nil {
		create = r.With(ratelimiter.Middleware(s.throttle, clientip.KeyFunc, middlewareErrors(s.errorHandler)))
	}
	create.Post("/create", handler.Wrap(s.create,
		handler.WithErrorHandler[handler.Context, createKeyRequest](s.errorHandler),
	))
	r.Get("/{api_key}", handler.Wrap(s.status,
		handler.WithBinders[handler.Context, keyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, keyRequest](s.errorHandler),
	))
	r.Get("/{api_key}/usage", handler.Wrap(s.usage,
		handler.WithBinders[handler.Context, usageRequest](binder.Path(chi.URLParam), binder.Query()),
		handler.WithErrorHandler[handler.Context, usageRequest](s.errorHandler),
	))

	return r
}

func (s *KeyService) create(ctx handler.Context, _ createKeyRequest) handler.Response {
	rec, err := s.keys.CreateKey(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(createKeyResponse{APIKey: rec.Key, Plan: rec.Plan})
}

func (s *KeyService) status(ctx handler.Context, req keyRequest) handler.Response {
	rec, err := s.keys.Get(ctx, req.APIKey)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(keyStatusResponse{APIKey: rec.Key, Plan: rec.Plan, IsActive: rec.Active})
}

// usage reads the counter without incrementing it. The day defaults to
// the current UTC day.
func (s *KeyService) usage(ctx handler.Context, req usageRequest) handler.Response {
	rec, err := s.keys.Get(ctx, req.APIKey)
	if err != nil {
		return handler.Error(err)
	}

	day := s.enforcer.Today()
	if req.Day != "" {
		if day, err = usage.ParseDay(req.Day); err != nil {
			return handler.Error(err)
		}
	}

	used, err := s.ledger.Count(ctx, rec.Key, day)
	if err != nil {
		return handler.Error(err)
	}

	return handler.JSON(usageResponse{
		APIKey:     rec.Key,
		Plan:       rec.Plan,
		Day:        day,
		UsedToday:  used,
		LimitToday: s.enforcer.Limits().For(rec.Plan),
	})
}
