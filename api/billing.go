package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/binder"
	"github.com/dmitrymomot/keymeter/pkg/handler"
)

// BillingService starts checkouts and serves the checkout redirect pages.
type BillingService struct {
	billing      *billing.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewBillingService(svc *billing.Service, errorHandler handler.ErrorHandler[handler.Context]) *BillingService {
	return &BillingService{billing: svc, errorHandler: errorHandler}
}

type checkoutRequest struct {
	APIKey string `json:"api_key"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type successRequest struct {
	APIKey string `query:"api_key"`
}

type redirectPageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	APIKey  string `json:"api_key,omitempty"`
}

func (s *BillingService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/checkout", handler.Wrap(s.checkout,
		handler.WithBinders[handler.Context, checkoutRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, checkoutRequest](s.errorHandler),
	))
	r.Get("/success", handler.Wrap(s.success,
		handler.WithBinders[handler.Context, successRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, successRequest](s.errorHandler),
	))
	r.Get("/cancel", handler.Wrap(s.cancel,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	return r
}

func (s *BillingService) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	link, err := s.billing.CreateCheckout(ctx, req.APIKey)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(checkoutResponse{URL: link.URL, SessionID: link.SessionID})
}

// success is informational only; the plan changes when the webhook arrives.
func (s *BillingService) success(_ handler.Context, req successRequest) handler.Response {
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return handler.Error(billing.ErrBlankKey)
	}
	return handler.JSON(redirectPageResponse{
		OK:      true,
		Message: "Payment success. Webhook will upgrade the key (usually instantly).",
		APIKey:  key,
	})
}

func (s *BillingService) cancel(handler.Context, struct{}) handler.Response {
	return handler.JSON(redirectPageResponse{OK: false, Message: "Payment cancelled."})
}
