// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, lifecycle hooks, and probe handlers.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the shutdown timeout. Stop
// hooks run after the drain, which makes them the right place to close
// shared resources such as the tenant connection pool manager:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(log *slog.Logger) {
//			pools.CloseAll(10 * time.Second)
//		}),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// HealthCheckHandler serves both liveness (no checks) and readiness (with
// dependency checks) probes.
package httpserver
