package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/binder"
	"github.com/dmitrymomot/keymeter/pkg/handler"
)

type pingRequest struct {
	APIKey string `query:"api_key" json:"api_key"`
}

func decodeError(t *testing.T, body *bytes.Buffer) handler.ErrorBody {
	t.Helper()
	var out handler.ErrorBody
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

func TestWrap(t *testing.T) {
	t.Parallel()

	type pingHandler = handler.HandlerFunc[handler.Context, pingRequest]

	echo := pingHandler(func(ctx handler.Context, req pingRequest) handler.Response {
		return handler.JSON(map[string]any{"ok": true, "api_key": req.APIKey})
	})

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(echo, handler.WithBinders[handler.Context, pingRequest](binder.Query(), binder.JSON()))

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/ping?api_key=key_1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"ok":true,"api_key":"key_1"}`, w.Body.String())
	})

	t.Run("binder failure", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(echo, handler.WithBinders[handler.Context, pingRequest](binder.JSON()))

		req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"api_key":`))
		w := httptest.NewRecorder()
		h(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w.Body)
		assert.False(t, body.OK)
		assert.Equal(t, "bad_request", body.Error.Code)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(pingHandler(func(handler.Context, pingRequest) handler.Response { return nil }))

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()
		var order []string
		mark := func(name string) handler.Decorator[handler.Context, pingRequest] {
			return func(next pingHandler) pingHandler {
				return func(ctx handler.Context, req pingRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(echo, handler.WithDecorators(mark("outer"), mark("inner")))

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("custom status", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(pingHandler(func(handler.Context, pingRequest) handler.Response {
			return handler.JSON(map[string]bool{"ok": true}, handler.WithJSONStatus(http.StatusCreated))
		}))
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

var errDomain = errors.New("domain failure")

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	classify := func(err error) (handler.HTTPError, bool) {
		if errors.Is(err, errDomain) {
			return handler.ErrForbidden.WithMessage("Not allowed."), true
		}
		return handler.HTTPError{}, false
	}

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"classified", errDomain, http.StatusForbidden, "forbidden", "Not allowed."},
		{"wrapped classified", errors.Join(errors.New("ctx"), errDomain), http.StatusForbidden, "forbidden", "Not allowed."},
		{"http error", handler.ErrNotFound, http.StatusNotFound, "not_found", "Not Found"},
		{"unknown", errors.New("sql: connection refused"), http.StatusInternalServerError, "internal_server_error", "An error occurred processing your request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer
			eh := handler.NewErrorHandler(slog.New(slog.NewJSONHandler(&logs, nil)), classify)

			w := httptest.NewRecorder()
			eh(handler.NewContext(w, httptest.NewRequest(http.MethodGet, "/x", nil)), tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w.Body)
			assert.False(t, body.OK)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
			assert.Contains(t, logs.String(), "request error")
			assert.NotContains(t, w.Body.String(), "sql:")
		})
	}
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_found", handler.ErrNotFound.Error())
	assert.Equal(t, "gone", handler.ErrNotFound.WithMessage("gone").Error())
	assert.Empty(t, handler.ErrNotFound.Message, "WithMessage must not mutate the sentinel")

	e := handler.NewHTTPError(http.StatusConflict, "conflict", "taken")
	assert.Equal(t, http.StatusConflict, e.Code)
	assert.Equal(t, "taken", e.Error())
}
