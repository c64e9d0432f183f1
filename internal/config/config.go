package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

// ShippingTier defines the per-currency shipping rule: orders whose gross
// subtotal reaches FreeThreshold ship for free, everything below pays FlatRate.
type ShippingTier struct {
	FreeThreshold money.Money
	FlatRate      money.Money
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	AdminAPIToken      string
	CORSAllowedOrigins []string

	AccessTokenTTL time.Duration
	IdempotencyTTL time.Duration

	VATRatePercent decimal.Decimal
	Shipping       map[money.Currency]ShippingTier

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	RateLimitPerMinute int64

	ViesBaseURL        string
	ViesTimeout        time.Duration
	ViesMaxAttempts    int
	ViesBreakerMinReqs int
	ViesBreakerRatio   float64
	ViesBreakerOpenFor time.Duration

	NotifyEmailEnabled bool
	NotifyEmailFrom    string
	QueueConcurrency   int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	vatRate, err := parseDecimal(k.String("PRICING_VAT_RATE_PERCENT"), "23")
	if err != nil {
		return nil, fmt.Errorf("PRICING_VAT_RATE_PERCENT: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		AdminAPIToken:      k.String("ADMIN_API_TOKEN"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		VATRatePercent:     vatRate,
		Shipping: map[money.Currency]ShippingTier{
			money.PLN: {
				FreeThreshold: parseMoney(k.String("SHIPPING_PLN_FREE_THRESHOLD"), 1_000_000),
				FlatRate:      parseMoney(k.String("SHIPPING_PLN_FLAT_RATE"), 4_900),
			},
			money.EUR: {
				FreeThreshold: parseMoney(k.String("SHIPPING_EUR_FREE_THRESHOLD"), 250_000),
				FlatRate:      parseMoney(k.String("SHIPPING_EUR_FLAT_RATE"), 1_900),
			},
		},
		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		RateLimitPerMinute:  int64(parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 300)),
		ViesBaseURL:         valueOrDefault(k.String("VIES_BASE_URL"), "https://ec.europa.eu/taxation_customs/vies"),
		ViesTimeout:         parseDuration(k.String("VIES_TIMEOUT"), "5s"),
		ViesMaxAttempts:     parseInt(k.String("VIES_MAX_ATTEMPTS"), 3),
		ViesBreakerMinReqs:  parseInt(k.String("VIES_BREAKER_MIN_REQUESTS"), 5),
		ViesBreakerRatio:    parseFloat(k.String("VIES_BREAKER_FAILURE_RATIO"), 0.5),
		ViesBreakerOpenFor:  parseDuration(k.String("VIES_BREAKER_OPEN_FOR"), "30s"),
		NotifyEmailEnabled:  parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
		NotifyEmailFrom:     valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "shop@agroflight.example"),
		QueueConcurrency:    parseInt(k.String("QUEUE_CONCURRENCY"), 4),
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
	if vatRate.IsNegative() {
		return nil, errors.New("PRICING_VAT_RATE_PERCENT must not be negative")
	}

	return cfg, nil
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
		return value
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
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseMoney(value string, fallback money.Money) money.Money {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func parseDecimal(value, fallback string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	return decimal.NewFromString(trimmed)
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
