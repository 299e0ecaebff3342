package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/webquote/internal/app"
	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/config"
	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/health"
	"github.com/noah-isme/webquote/internal/leads"
	"github.com/noah-isme/webquote/internal/notify"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/quote"
	"github.com/noah-isme/webquote/internal/ratelimit"
	"github.com/noah-isme/webquote/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Str("component", "api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.TracingEnabled,
		ServiceName:   cfg.Obs.ServiceName,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.SampleRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.New(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if cfg.MigrateOnStart && cfg.DatabaseURL != "" {
		if err := app.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	bus := events.NewBus()
	if store := deps.Leads(); store != nil {
		bus.Subscribe(events.TopicQuoteRequested, leads.Recorder{Store: store})
	} else {
		logger.Warn().Msg("DATABASE_URL not set; quote requests are not recorded")
	}
	var publisher quote.Publisher
	if cfg.SMTP.Enabled() {
		tasks, err := deps.TaskClient()
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise task client")
		}
		defer func() { _ = tasks.Close() }()
		bus.Subscribe(events.TopicQuoteRequested, notify.Enqueuer{Client: tasks, MaxRetry: cfg.EmailMaxRetry, Logger: logger})
		publisher = bus
	} else {
		logger.Warn().Msg("SMTP_HOST not set; quote emails are disabled")
	}

	limiterStore, err := deps.LimiterStore()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	onLimitError := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }

	quotes := &quote.Handler{
		Service:  quote.NewService(deps.Engine),
		Sessions: session.NewStore(deps.Redis, cfg.SessionTTL),
		Share:    quote.NewShareSigner(cfg.ShareTokenSecret, cfg.ShareTokenTTL),
		Events:   publisher,
		Validate: deps.Validator,
		Logger:   logger,
		BaseURL:  cfg.PublicBaseURL,
		PromoLimit: ratelimit.Guard{
			Bucket:  "promo",
			Limiter: ratelimit.Sliding{Client: deps.Redis, Prefix: "webquote:limit:"},
			Rule:    ratelimit.Rule{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.PromoLimit},
			OnError: onLimitError,
		}.Middleware,
		EmailLimit: ratelimit.Guard{
			Bucket:  "email",
			Limiter: ratelimit.Fixed{Store: limiterStore},
			Rule:    ratelimit.Rule{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.EmailLimit},
			OnError: onLimitError,
		}.Middleware,
		Idempotency: common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}.Middleware,
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.ServiceName, buckets, deps.Registry)
	}

	rc := routerConfig{
		Logger:  logger,
		Quotes:  quotes,
		Metrics: httpMetrics,
		Health: health.Handler{Probes: deps.Probes(
			envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
			envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		)},
		Tracing:     cfg.Obs.TracingEnabled,
		Origins:     cfg.CORSAllowedOrigins,
		BodyLimit:   cfg.BodyLimitBytes,
		HSTS:        cfg.IsProduction(),
		EnablePprof: envBool("OBS_ENABLE_PPROF", false),
		PprofUser:   envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""),
		PprofPass:   envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", ""),
	}
	if cfg.Obs.MetricsEnabled {
		rc.Gatherer = deps.Registry
	}
	handler := newRouter(rc)
	if cfg.Obs.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "webquote.http")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health.SetReady(true)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	drainCtx, drainCancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 15000))
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
