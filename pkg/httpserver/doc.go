// Package httpserver runs an http.Handler with configurable timeouts and
// graceful shutdown driven by a context, and provides liveness and readiness
// handlers.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second, map[string]httpserver.Check{
//		"postgres": pg.Healthcheck(pool),
//	}))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run wraps listen errors with ErrStart and Shutdown wraps drain errors with
// ErrShutdown.
package httpserver
