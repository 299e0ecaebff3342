// Package app assembles the shared dependencies of the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/webquote/internal/bundle"
	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/config"
	"github.com/noah-isme/webquote/internal/health"
	"github.com/noah-isme/webquote/internal/leads"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/pricing"
	"github.com/noah-isme/webquote/internal/promo"
	"github.com/noah-isme/webquote/internal/resilience"
)

// Dependencies holds the clients shared by the API and the worker. DB is nil
// when DATABASE_URL is empty; leads are then not recorded.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	DB        *pgxpool.Pool
	Validator *validator.Validate
	Registry  *prometheus.Registry
	Engine    *pricing.Engine
}

// New connects to Redis and, when configured, Postgres.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Validator: validator.New(),
		Registry:  NewRegistry(),
		Engine:    NewEngine(cfg),
	}
	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(metricsNamespace(cfg), d.Registry)
		if err := resilience.RegisterMetrics(d.Registry); err != nil {
			return nil, fmt.Errorf("register breaker metrics: %w", err)
		}
	}

	rdb, err := NewRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		return nil, err
	}
	d.Redis = rdb

	if cfg.DatabaseURL != "" {
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		d.DB = pool
	}
	return d, nil
}

// Close releases every client.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
}

// Leads returns the lead store, or nil without a database.
func (d *Dependencies) Leads() *leads.Store {
	if d.DB == nil {
		return nil
	}
	return leads.NewStore(d.DB)
}

// LimiterStore returns a ulule/limiter store on the shared Redis client.
func (d *Dependencies) LimiterStore() (limiter.Store, error) {
	return NewLimiterStore(d.Redis)
}

// TaskClient opens an asynq client on the configured Redis.
func (d *Dependencies) TaskClient() (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(d.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri for asynq: %w", err)
	}
	return asynq.NewClient(opt), nil
}

// Probes lists the readiness checks for the configured dependencies.
func (d *Dependencies) Probes(redisTimeout, dbTimeout time.Duration) []health.Probe {
	return []health.Probe{
		{Name: "redis", Timeout: redisTimeout, Check: d.PingRedis},
		{Name: "postgres", Timeout: dbTimeout, Check: d.PingDB},
	}
}

// PingDB reports health.ErrDisabled when leads are not stored.
func (d *Dependencies) PingDB(ctx context.Context) error {
	if d.DB == nil {
		return health.ErrDisabled
	}
	return d.DB.Ping(ctx)
}

// PingRedis pings the shared Redis client.
func (d *Dependencies) PingRedis(ctx context.Context) error {
	if d.Redis == nil {
		return errors.New("redis not configured")
	}
	return d.Redis.Ping(ctx).Err()
}

// NewEngine builds the pricing engine from configuration. Without configured
// digests the built-in codes and pepper apply.
func NewEngine(cfg *config.Config) *pricing.Engine {
	evaluator := promo.Default()
	if len(cfg.PromoDigests) > 0 {
		pepper := cfg.PromoPepper
		if pepper == "" {
			pepper = promo.DefaultPepper
		}
		evaluator = promo.NewEvaluator(pepper, cfg.PromoDiscountPercent, cfg.PromoDigests)
	} else if cfg.PromoDiscountPercent > 0 {
		evaluator = promo.NewEvaluator(promo.DefaultPepper, cfg.PromoDiscountPercent, promo.DefaultDigests)
	}
	return pricing.NewEngine(catalog.Default(), bundle.Default(), evaluator, cfg.DepositPercent)
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRedis connects and instruments a Redis client.
func NewRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewPool connects a traced pgx pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "webquote"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          "webquote:limit",
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// RunMigrations applies the lead schema.
func RunMigrations(databaseURL string) error {
	m, err := leads.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	return leads.Up(m)
}

func metricsNamespace(cfg *config.Config) string {
	if cfg.Obs.ServiceName == "" {
		return "webquote"
	}
	return cfg.Obs.ServiceName
}
