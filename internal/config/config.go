package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	DatabaseURL        string
	CORSAllowedOrigins []string

	SessionTTL           time.Duration
	DepositPercent       int
	PromoDiscountPercent int
	PromoPepper          string
	PromoDigests         []string

	SMTP           SMTPConfig
	QuoteEmailFrom string
	QuoteEmailBcc  []string
	EmailMaxRetry  int
	EmailRetryBase time.Duration
	CircuitSMTP    CircuitConfig
	MigrateOnStart bool

	ShareTokenSecret string
	ShareTokenTTL    time.Duration
	PublicBaseURL    string

	RateLimit         RateLimitConfig
	IdempotencyTTL    time.Duration
	BodyLimitBytes    int64
	WorkerConcurrency int

	Obs ObsConfig
}

// SMTPConfig configures outbound quote emails. An empty host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether an SMTP relay is configured.
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// CircuitConfig tunes a circuit breaker.
type CircuitConfig struct {
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
}

// RateLimitConfig bounds promo validations and email requests per client.
type RateLimitConfig struct {
	PromoLimit int
	EmailLimit int
	Window     time.Duration
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat      string
	LogLevel       string
	MetricsEnabled bool
	TracingEnabled bool
	ServiceName    string
	OTLPEndpoint   string
	SampleRatio    float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		SessionTTL:           parseDuration(k.String("SESSION_TTL"), "720h"),
		DepositPercent:       parseInt(k.String("DEPOSIT_PERCENT"), 20),
		PromoDiscountPercent: parseInt(k.String("PROMO_DISCOUNT_PERCENT"), 10),
		PromoPepper:          k.String("PROMO_PEPPER"),
		PromoDigests:         splitAndTrim(k.String("PROMO_DIGESTS")),

		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(k.String("SMTP_HOST")),
			Port:     parseInt(k.String("SMTP_PORT"), 587),
			Username: k.String("SMTP_USERNAME"),
			Password: k.String("SMTP_PASSWORD"),
		},
		QuoteEmailFrom: valueOrDefault(k.String("QUOTE_EMAIL_FROM"), "quotes@webquote.local"),
		QuoteEmailBcc:  splitAndTrim(k.String("QUOTE_EMAIL_BCC")),
		EmailMaxRetry:  parseInt(k.String("EMAIL_MAX_RETRY"), 8),
		EmailRetryBase: parseDuration(k.String("EMAIL_RETRY_BASE"), "30s"),
		CircuitSMTP: CircuitConfig{
			MinRequests:  parseInt(k.String("CIRCUIT_SMTP_MIN_REQUESTS"), 5),
			FailureRatio: parseFloat(k.String("CIRCUIT_SMTP_FAILURE_RATIO"), 0.5),
			OpenFor:      parseDuration(k.String("CIRCUIT_SMTP_OPEN_FOR"), "1m"),
		},
		MigrateOnStart: parseBool(k.String("MIGRATE_ON_START")),

		ShareTokenSecret: k.String("SHARE_TOKEN_SECRET"),
		ShareTokenTTL:    parseDuration(k.String("SHARE_TOKEN_TTL"), "168h"),
		PublicBaseURL:    strings.TrimRight(valueOrDefault(k.String("PUBLIC_BASE_URL"), "http://localhost:8080"), "/"),

		RateLimit: RateLimitConfig{
			PromoLimit: parseInt(k.String("RATE_LIMIT_PROMO"), 10),
			EmailLimit: parseInt(k.String("RATE_LIMIT_EMAIL"), 5),
			Window:     parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		},
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		BodyLimitBytes:    int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),

		Obs: ObsConfig{
			LogFormat:      valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:       valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled: parseBoolDefault(k.String("OBS_METRICS_ENABLED"), true),
			TracingEnabled: parseBool(k.String("OBS_TRACING_ENABLED")),
			ServiceName:    valueOrDefault(k.String("OBS_SERVICE_NAME"), "webquote"),
			OTLPEndpoint:   strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SampleRatio:    parseFloat(k.String("OBS_TRACE_SAMPLE_RATIO"), 1),
		},
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ShareTokenSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SHARE_TOKEN_SECRET is required in production")
		}
		cfg.ShareTokenSecret = "webquote-dev-share-secret"
	}
	if cfg.DepositPercent <= 0 || cfg.DepositPercent >= 100 {
		return nil, fmt.Errorf("DEPOSIT_PERCENT must be between 1 and 99, got %d", cfg.DepositPercent)
	}
	if cfg.PromoDiscountPercent <= 0 || cfg.PromoDiscountPercent > 100 {
		return nil, fmt.Errorf("PROMO_DISCOUNT_PERCENT must be between 1 and 100, got %d", cfg.PromoDiscountPercent)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
