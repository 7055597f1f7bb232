// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run blocks until its context is cancelled, SIGINT/SIGTERM arrives or the
// listener fails. On shutdown the server drains in-flight requests within the
// configured deadline and then runs the registered closers (storage pools,
// redis clients) in reverse registration order.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithCloser("store", st.Close),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness ("ALIVE") and readiness ("READY" or
// "NOT_READY") probes.
package httpserver
