package logger_test

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	attr := logger.Errors(errors.New("first"), nil, errors.New("second"))
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "first", g[0].Value.String())
	assert.Equal(t, "second", g[1].Value.String())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.String())

	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestAPIKey(t *testing.T) {
	t.Parallel()

	t.Run("masks the key", func(t *testing.T) {
		t.Parallel()
		raw := "key_abcdefghijklmnopqrstuvwxyz012345"
		attr := logger.APIKey(raw)
		require.Equal(t, "api_key", attr.Key)
		assert.NotEqual(t, raw, attr.Value.String())
		assert.True(t, strings.HasSuffix(attr.Value.String(), "2345"))
		assert.NotContains(t, attr.Value.String(), "abcdefghijklmnop")
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()
		assert.True(t, logger.APIKey("").Equal(slog.Attr{}))
	})
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{logger.Plan("pro"), "plan", "pro"},
		{logger.Provider("stripe"), "provider", "stripe"},
		{logger.EventType("checkout.session.completed"), "event_type", "checkout.session.completed"},
		{logger.Component("quota"), "component", "quota"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.attr.Key)
		assert.Equal(t, tc.val, tc.attr.Value.String())
	}
}
