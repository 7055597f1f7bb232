package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/handler"
)

// MaxWebhookBody bounds the size of a webhook delivery.
const MaxWebhookBody = 1 << 20

// WebhookService receives payment events from one provider.
type WebhookService struct {
	billing      *billing.Service
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewWebhookService(svc *billing.Service, errorHandler handler.ErrorHandler[handler.Context]) *WebhookService {
	return &WebhookService{billing: svc, errorHandler: errorHandler}
}

func (s *WebhookService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", handler.Wrap(s.receive,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	return r
}

// receive passes the raw body to the provider; signatures are computed over
// the exact bytes so the body is never decoded here.
func (s *WebhookService) receive(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()

	payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, MaxWebhookBody))
	if err != nil {
		return handler.Error(errors.Join(billing.ErrInvalidPayload, err))
	}

	signature := r.Header.Get(s.billing.Provider().SignatureHeader())
	if _, err := s.billing.HandlePaymentEvent(ctx, payload, signature); err != nil {
		return handler.Error(err)
	}

	return handler.JSON(okResponse{OK: true})
}
