package binder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/binder"
)

type checkoutRequest struct {
	APIKey string `json:"api_key"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	newReq := func(body, contentType string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req
	}

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		var v checkoutRequest
		err := binder.JSON()(newReq(`{"api_key":"  key_abc  "}`, "application/json; charset=utf-8"), &v)
		require.NoError(t, err)
		assert.Equal(t, "key_abc", v.APIKey)
	})

	t.Run("missing content type is read as json", func(t *testing.T) {
		t.Parallel()
		var v checkoutRequest
		require.NoError(t, binder.JSON()(newReq(`{"api_key":"key_abc"}`, ""), &v))
		assert.Equal(t, "key_abc", v.APIKey)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		var v checkoutRequest
		err := binder.JSON()(newReq(`api_key=x`, "application/x-www-form-urlencoded"), &v)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("empty body is not applicable", func(t *testing.T) {
		t.Parallel()
		var v checkoutRequest
		err := binder.JSON()(newReq("  ", "application/json"), &v)
		assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{`{"api_key":`, `{"api_key":1}`, `{"other":"x"}`, `{"api_key":"a"} {}`} {
			var v checkoutRequest
			err := binder.JSON()(newReq(body, "application/json"), &v)
			assert.ErrorIs(t, err, binder.ErrFailedToParseJSON, body)
		}
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		body := `{"api_key":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		var v checkoutRequest
		err := binder.JSON()(newReq(body, "application/json"), &v)
		assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var v checkoutRequest
		err := binder.JSON()(newReq(`{"api_key":"x"}`, "application/json").WithContext(ctx), &v)
		assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})
}

type usageRequest struct {
	APIKey  string `path:"api_key" query:"api_key"`
	Day     string `query:"day"`
	Limit   *int   `query:"limit"`
	Verbose bool   `query:"verbose"`
	Skipped string `query:"-" path:"-"`
}

func TestQuery(t *testing.T) {
	t.Parallel()

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/x?api_key=key_1&day=2025-03-14&limit=5&verbose=true&skipped=no", nil)
		var v usageRequest
		require.NoError(t, binder.Query()(req, &v))
		assert.Equal(t, "key_1", v.APIKey)
		assert.Equal(t, "2025-03-14", v.Day)
		require.NotNil(t, v.Limit)
		assert.Equal(t, 5, *v.Limit)
		assert.True(t, v.Verbose)
		assert.Empty(t, v.Skipped)
	})

	t.Run("no query", func(t *testing.T) {
		t.Parallel()
		var v usageRequest
		err := binder.Query()(httptest.NewRequest(http.MethodGet, "/x", nil), &v)
		assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		var v usageRequest
		err := binder.Query()(httptest.NewRequest(http.MethodGet, "/x?limit=many", nil), &v)
		assert.ErrorIs(t, err, binder.ErrInvalidQuery)
	})

	t.Run("non pointer target", func(t *testing.T) {
		t.Parallel()
		err := binder.Query()(httptest.NewRequest(http.MethodGet, "/x?a=b", nil), usageRequest{})
		assert.ErrorIs(t, err, binder.ErrInvalidQuery)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	params := map[string]string{"api_key": "key_from_path"}
	extractor := func(_ *http.Request, name string) string { return params[name] }

	var v usageRequest
	require.NoError(t, binder.Path(extractor)(httptest.NewRequest(http.MethodGet, "/", nil), &v))
	assert.Equal(t, "key_from_path", v.APIKey)
	assert.Empty(t, v.Skipped)

	err := binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &v)
	assert.ErrorIs(t, err, binder.ErrInvalidPath)
}
