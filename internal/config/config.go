// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	CORSAllowedOrigins []string
	DBAutoMigrate      bool
	DBMaxConns         int32

	CartTTL           time.Duration
	CatalogCacheTTL   time.Duration
	AnalyticsCacheTTL time.Duration
	IdempotencyTTL    time.Duration
	LockTTL           time.Duration
	LockRetryBackoff  time.Duration

	APIRateLimit    string
	LoginRateMax    int
	LoginRateWindow time.Duration
	BodyLimitBytes  int64

	InvoiceNodeID   int64
	DefaultBranchID *uuid.UUID

	NotifyEmailEnabled     bool
	NotifyEmailFrom        string
	WebhookDeliveryEnabled bool
	WebhookRequestTimeout  time.Duration
	WebhookMaxRetry        int

	AuditEnabled bool

	ReceiptS3Bucket string
	ReceiptS3Region string
	ReceiptS3Prefix string

	WorkerConcurrency int

	Obs ObsConfig
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat            string
	LogLevel             string
	MetricsNamespace     string
	EnablePrometheus     bool
	EnableTracing        bool
	OTLPEndpoint         string
	TracingSamplingRatio float64
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "backend-salon"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DBAutoMigrate:      parseBool(k.String("DB_AUTO_MIGRATE"), true),
		DBMaxConns:         int32(parseInt(k.String("DB_MAX_CONNS"), 10)),

		CartTTL:           parseDuration(k.String("CART_TTL"), "24h"),
		CatalogCacheTTL:   parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		AnalyticsCacheTTL: parseDuration(k.String("ANALYTICS_CACHE_TTL"), "2m"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:           parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:  parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),

		APIRateLimit:    valueOrDefault(k.String("API_RATE_LIMIT"), "100-15M"),
		LoginRateMax:    parseInt(k.String("LOGIN_RATE_MAX"), 5),
		LoginRateWindow: parseDuration(k.String("LOGIN_RATE_WINDOW"), "15m"),
		BodyLimitBytes:  int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),

		InvoiceNodeID: int64(parseInt(k.String("INVOICE_NODE_ID"), 1)),

		NotifyEmailEnabled:     parseBool(k.String("NOTIFY_EMAIL_ENABLED"), false),
		NotifyEmailFrom:        valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@salon.local"),
		WebhookDeliveryEnabled: parseBool(k.String("WEBHOOK_DELIVERY_ENABLED"), true),
		WebhookRequestTimeout:  parseDuration(k.String("WEBHOOK_REQUEST_TIMEOUT"), "10s"),
		WebhookMaxRetry:        parseInt(k.String("WEBHOOK_MAX_RETRY"), 8),

		AuditEnabled: parseBool(k.String("AUDIT_ENABLED"), true),

		ReceiptS3Bucket: strings.TrimSpace(k.String("RECEIPT_S3_BUCKET")),
		ReceiptS3Region: valueOrDefault(k.String("RECEIPT_S3_REGION"), "ap-south-1"),
		ReceiptS3Prefix: strings.Trim(k.String("RECEIPT_S3_PREFIX"), "/ "),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 10),

		Obs: ObsConfig{
			LogFormat:            valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:             valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace:     valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "salon"),
			EnablePrometheus:     parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:        parseBool(k.String("OBS_ENABLE_TRACING"), false),
			OTLPEndpoint:         strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSamplingRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 0.1),
		},
	}

	if raw := strings.TrimSpace(k.String("DEFAULT_BRANCH_ID")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_BRANCH_ID: %w", err)
		}
		cfg.DefaultBranchID = &id
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.InvoiceNodeID < 0 || cfg.InvoiceNodeID > 1023 {
		return nil, fmt.Errorf("INVOICE_NODE_ID must be within 0..1023, got %d", cfg.InvoiceNodeID)
	}
	if cfg.Obs.TracingSamplingRatio < 0 || cfg.Obs.TracingSamplingRatio > 1 {
		return nil, errors.New("OBS_TRACING_SAMPLING_RATIO must be within 0..1")
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
	env := strings.ToLower(c.AppEnv)
	return env == "production" || env == "prod"
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
	if v := strings.TrimSpace(value); v != "" {
		return v
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

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
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

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests overrides environment variables for the duration of one Load.
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
