package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/app"
	"github.com/noah-isme/backend-salon/internal/config"
	"github.com/noah-isme/backend-salon/internal/health"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/security"
)

const (
	serviceName   = "salon-api"
	shutdownGrace = 15 * time.Second
	// drainDelay gives load balancers time to observe the failing readiness probe.
	drainDelay = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.EnableTracing,
		ServiceName:   serviceName,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.TracingSamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(openCtx, cfg, logger, serviceName)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	services, err := app.NewServices(deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("build services")
	}
	apiLimit, err := security.APILimit(deps.Redis, cfg.APIRateLimit, "rl:api")
	if err != nil {
		logger.Fatal().Err(err).Msg("api rate limit")
	}
	var metrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		metrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, nil, prometheus.DefaultRegisterer)
	}
	probes := &health.Handler{Checks: []health.Check{health.Postgres(deps.DB), health.Redis(deps.Redis)}}

	srv := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: app.NewRouter(deps, services, app.RouterOptions{
			Health:   probes,
			APILimit: apiLimit,
			Metrics:  metrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		drain(srv, probes, logger)
	}
}

func drain(srv *http.Server, probes *health.Handler, logger zerolog.Logger) {
	logger.Info().Msg("shutting down")
	probes.SetReady(false)
	time.Sleep(drainDelay)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
		return
	}
	logger.Info().Msg("server stopped")
}
