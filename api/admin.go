package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/keymeter/pkg/binder"
	"github.com/dmitrymomot/keymeter/pkg/handler"
	"github.com/dmitrymomot/keymeter/pkg/keys"
)

// AdminService lets operators suspend and restore keys.
// Every route requires "Authorization: Bearer <token>".
type AdminService struct {
	keys         *keys.Service
	token        string
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewAdminService panics on an empty token; the caller decides whether to
// mount admin routes at all.
func NewAdminService(keySvc *keys.Service, token string, errorHandler handler.ErrorHandler[handler.Context]) *AdminService {
	if token == "" {
		panic("api: admin token is required")
	}
	return &AdminService{keys: keySvc, token: token, errorHandler: errorHandler}
}

type adminKeyResponse struct {
	OK       bool   `json:"ok"`
	APIKey   string `json:"api_key"`
	IsActive bool   `json:"is_active"`
}

func (s *AdminService) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authorize)

	r.Post("/keys/{api_key}/activate", s.setActive(true))
	r.Post("/keys/{api_key}/deactivate", s.setActive(false))

	return r
}

func (s *AdminService) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="keymeter-admin"`)
			handler.RenderError(w, handler.ErrUnauthorized.WithMessage("Invalid admin token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *AdminService) setActive(active bool) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req keyRequest) handler.Response {
		if err := s.keys.SetActive(ctx, req.APIKey, active); err != nil {
			return handler.Error(err)
		}
		return handler.JSON(adminKeyResponse{OK: true, APIKey: req.APIKey, IsActive: active})
	},
		handler.WithBinders[handler.Context, keyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, keyRequest](s.errorHandler),
	)
}
