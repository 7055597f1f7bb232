package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/keymeter/pkg/logger"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

type config struct {
	addr              string
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	startHooks        []func(addr string)
	closers           []closer
}

func defaultConfig() *config {
	return &config{
		addr:              ":8000",
		readHeaderTimeout: 10 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            slog.New(slog.DiscardHandler),
	}
}

// Server wraps http.Server with graceful shutdown and resource cleanup.
type Server struct {
	cfg *config

	mu  sync.Mutex
	srv *http.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg}
}

// Run serves handler and blocks until shutdown completes.
// Listener failures are wrapped with ErrStart, shutdown failures with
// ErrShutdown.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, errors.New("server already running"))
	}
	srv := &http.Server{
		Addr:              s.cfg.addr,
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		ReadTimeout:       s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelError),
	}
	s.srv = srv
	s.mu.Unlock()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ln.Addr().String()
	s.cfg.logger.InfoContext(ctx, "http server started", slog.String("addr", addr))
	for _, h := range s.cfg.startHooks {
		h(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-sigCtx.Done():
		s.cfg.logger.InfoContext(ctx, "http server shutting down")
		shutdownErr := s.Shutdown(context.WithoutCancel(ctx))
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return errors.Join(ErrStart, serveErr)
		}
		return shutdownErr
	case serveErr := <-errCh:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			_ = s.runClosers(context.WithoutCancel(ctx))
			return errors.Join(ErrStart, serveErr)
		}
		// Shutdown was called directly; wait for it to finish its closers.
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown drains the server and runs the closers. Repeated calls return
// the result of the first one.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()

		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()

		var errs []error
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, err)
			}
		}
		if err := s.runClosers(ctx); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			s.shutdownErr = errors.Join(append([]error{ErrShutdown}, errs...)...)
		}
	})
	return s.shutdownErr
}

func (s *Server) runClosers(ctx context.Context) error {
	var errs []error
	for i := len(s.cfg.closers) - 1; i >= 0; i-- {
		c := s.cfg.closers[i]
		if err := c.fn(ctx); err != nil {
			s.cfg.logger.ErrorContext(ctx, "failed to close resource",
				slog.String("resource", c.name), logger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
