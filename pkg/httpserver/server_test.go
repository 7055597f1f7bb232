package httpserver_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/httpserver"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startServer(t *testing.T, ctx context.Context, opts ...httpserver.Option) (*httpserver.Server, <-chan error, string) {
	t.Helper()
	started := make(chan string, 1)
	opts = append([]httpserver.Option{
		httpserver.WithAddr(freeAddr(t)),
		httpserver.WithShutdownTimeout(200 * time.Millisecond),
		httpserver.WithStartHook(func(addr string) { started <- addr }),
	}, opts...)
	srv := httpserver.New(opts...)

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}()

	select {
	case addr := <-started:
		return srv, done, addr
	case err := <-done:
		require.FailNow(t, "server exited early", "%v", err)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "server did not start")
	}
	return nil, nil, ""
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "run did not finish")
		return nil
	}
}

func TestRun_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	_, done, addr := startServer(t, ctx)

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestShutdown_RunsClosersInReverseOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	srv, done, _ := startServer(t, context.Background(),
		httpserver.WithCloser("store", record("store")),
		httpserver.WithCloser("redis", record("redis")),
	)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, waitDone(t, done))
	require.NoError(t, srv.Shutdown(context.Background()), "second shutdown is a no-op")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"redis", "store"}, order)
}

func TestShutdown_CloserError(t *testing.T) {
	t.Parallel()

	boom := errors.New("close failed")
	srv, done, _ := startServer(t, context.Background(),
		httpserver.WithCloser("store", func(context.Context) error { return boom }),
	)

	err := srv.Shutdown(context.Background())
	assert.ErrorIs(t, err, httpserver.ErrShutdown)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, waitDone(t, done), boom)
}

func TestRun_StartError(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr(":invalid"))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestRun_AlreadyRunning(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv, done, _ := startServer(t, ctx)

	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	started := make(chan string, 1)
	srv := httpserver.NewFromConfig(
		httpserver.Config{Addr: addr, ShutdownTimeout: 100 * time.Millisecond},
		httpserver.WithStartHook(func(a string) { started <- a }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, nil) }()

	assert.Equal(t, addr, <-started)
	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	tests := map[string]func(){
		"addr":        func() { httpserver.WithAddr("") },
		"read header": func() { httpserver.WithReadHeaderTimeout(0) },
		"read":        func() { httpserver.WithReadTimeout(-time.Second) },
		"write":       func() { httpserver.WithWriteTimeout(-time.Second) },
		"idle":        func() { httpserver.WithIdleTimeout(-time.Second) },
		"shutdown":    func() { httpserver.WithShutdownTimeout(-time.Second) },
		"start hook":  func() { httpserver.WithStartHook(nil) },
		"closer":      func() { httpserver.WithCloser("x", nil) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, fn)
		})
	}

	assert.NotPanics(t, func() { httpserver.WithLogger(nil) })
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	serve := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return rec
	}

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := serve(httpserver.HealthCheckHandler(nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		ok := func(context.Context) error { return nil }
		rec := serve(httpserver.HealthCheckHandler(nil, ok, ok))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		ok := func(context.Context) error { return nil }
		fail := func(context.Context) error { return errors.New("db down") }
		rec := serve(httpserver.HealthCheckHandler(nil, ok, fail))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
	})
}
