package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/webquote/internal/app"
	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/config"
	"github.com/noah-isme/webquote/internal/notify"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/quote"
	"github.com/noah-isme/webquote/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.TracingEnabled,
		ServiceName:   cfg.Obs.ServiceName + "-worker",
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.SampleRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.New(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	var mail common.EmailSender = common.NopEmailSender{}
	if cfg.SMTP.Enabled() {
		breaker := resilience.NewBreaker(resilience.Settings{
			Name:         "smtp",
			MinRequests:  cfg.CircuitSMTP.MinRequests,
			FailureRatio: cfg.CircuitSMTP.FailureRatio,
			OpenFor:      cfg.CircuitSMTP.OpenFor,
			Logger:       logger,
		})
		sender := notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.QuoteEmailFrom, breaker)
		sender.Bcc = cfg.QuoteEmailBcc
		mail = sender
	} else {
		logger.Warn().Msg("SMTP_HOST not set; quote emails are discarded")
	}

	worker := &notify.Worker{
		Composer: notify.Composer{Service: quote.NewService(deps.Engine)},
		Mail:     mail,
		Logger:   logger,
	}
	if store := deps.Leads(); store != nil {
		worker.Leads = store
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri")
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          map[string]int{notify.QueueEmail: 1},
		RetryDelayFunc:  notify.RetryDelay(cfg.EmailRetryBase),
		Logger:          notify.AsynqLogger{Logger: logger},
		ShutdownTimeout: 20 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).Str("type", task.Type()).Int("retry", retried).Int("max_retry", maxRetry).Msg("task_failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(notify.TypeQuoteEmail, worker)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
