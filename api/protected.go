package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keymeter/pkg/handler"
	"github.com/dmitrymomot/keymeter/pkg/quota"
)

// KeyHeader is an alternative to the api_key query parameter.
const KeyHeader = "X-API-Key"

// ProtectedService serves the metered sample endpoint.
type ProtectedService struct {
	enforcer     *quota.Enforcer
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewProtectedService(enforcer *quota.Enforcer, errorHandler handler.ErrorHandler[handler.Context]) *ProtectedService {
	return &ProtectedService{enforcer: enforcer, errorHandler: errorHandler}
}

type pingRequest struct{}

type pingResponse struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	Plan       string `json:"plan"`
	UsedToday  int64  `json:"used_today"`
	LimitToday int64  `json:"limit_today"`
}

func (s *ProtectedService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Use(quota.Middleware(
		s.enforcer,
		quota.FirstOf(quota.FromQuery("api_key"), quota.FromHeader(KeyHeader), quota.FromHeader("Authorization")),
		middlewareErrors(s.errorHandler),
	))
	r.Get("/ping", handler.Wrap(s.ping,
		handler.WithErrorHandler[handler.Context, pingRequest](s.errorHandler),
	))

	return r
}

func (s *ProtectedService) ping(ctx handler.Context, _ pingRequest) handler.Response {
	res, ok := quota.FromContext(ctx)
	if !ok {
		return handler.Error(quota.ErrUnknownKey)
	}
	return handler.JSON(pingResponse{
		OK:         true,
		Message:    "pong",
		Plan:       res.Plan.String(),
		UsedToday:  res.UsedToday,
		LimitToday: res.LimitToday,
	})
}
