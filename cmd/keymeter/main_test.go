package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/billing"
	"github.com/dmitrymomot/keymeter/pkg/config"
	"github.com/dmitrymomot/keymeter/pkg/quota"
	"github.com/dmitrymomot/keymeter/pkg/ratelimiter"
	"github.com/dmitrymomot/keymeter/store"
)

func TestConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	var cfg Config
	require.NoError(t, config.Load(&cfg, "testdata/none.env"))

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, store.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "keymeter.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "stripe", cfg.Billing.Provider)
	assert.Equal(t, "http://localhost:8000", cfg.Billing.BaseURL)
	assert.Equal(t, quota.DefaultLimits(), cfg.Limits)
	assert.Equal(t, 10, cfg.KeyThrottle.Capacity)
	assert.Equal(t, time.Minute, cfg.KeyThrottle.RefillInterval)
}

func newTestRouter(t *testing.T, cfg Config, throttle *ratelimiter.Bucket) http.Handler {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: store.DriverMemory}, nil)
	require.NoError(t, err)

	h, err := newRouter(cfg, st, throttle, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	return h
}

func TestNewRouter(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Limits:     quota.DefaultLimits(),
		AdminToken: "token",
		Billing: billing.Config{
			Provider: "stripe",
			BaseURL:  "http://localhost:8000",
			Paddle:   billing.PaddleConfig{WebhookSecret: "pdl_ntfset_secret", Environment: "sandbox"},
		},
	}
	h := newTestRouter(t, cfg, nil)

	for _, tc := range []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodPost, "/keys/create", http.StatusOK},
		{http.MethodPost, "/stripe/webhook", http.StatusInternalServerError},
		{http.MethodPost, "/paddle/webhook", http.StatusBadRequest},
		{http.MethodPost, "/admin/keys/key_x/deactivate", http.StatusUnauthorized},
		{http.MethodGet, "/metrics", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}
}

func TestNewRouter_Errors(t *testing.T) {
	t.Parallel()

	st, err := store.Open(context.Background(), store.Config{Driver: store.DriverMemory}, nil)
	require.NoError(t, err)

	_, err = newRouter(Config{Limits: quota.Limits{Free: 0, Pro: 1}}, st, nil, prometheus.NewRegistry(), nil)
	assert.ErrorIs(t, err, quota.ErrInvalidLimits)

	_, err = newRouter(Config{
		Limits:  quota.DefaultLimits(),
		Billing: billing.Config{Provider: "paypal"},
	}, st, nil, prometheus.NewRegistry(), nil)
	assert.ErrorIs(t, err, billing.ErrUnknownProvider)
}

func TestNewRouter_KeyThrottle(t *testing.T) {
	t.Parallel()

	limiter := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(limiter.Close)
	throttle, err := ratelimiter.NewBucket(limiter, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	h := newTestRouter(t, Config{Limits: quota.DefaultLimits()}, throttle)

	codes := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/keys/create", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
