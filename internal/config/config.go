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
	ERPBaseURL         string
	ERPAPIKey          string
	ERPAPISecret       string
	ERPProvider        string
	ERPTimeout         time.Duration
	CORSAllowedOrigins []string
	CurrencyCode       string
	CartTTL            time.Duration
	IdempotencyTTL     time.Duration
	ConfigCacheTTL     time.Duration
	CatalogCacheTTL    time.Duration
	CatalogPageSize    int
	CatalogWarmDelay   time.Duration
	CatalogWarmEnabled bool
	ShareQueue         string
	ShareMaxRetry      int
	CheckoutRatePerMin int
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
		RedisURL:           k.String("REDIS_URL"),
		ERPBaseURL:         strings.TrimSpace(k.String("ERP_BASE_URL")),
		ERPAPIKey:          k.String("ERP_API_KEY"),
		ERPAPISecret:       k.String("ERP_API_SECRET"),
		ERPProvider:        valueOrDefault(strings.ToLower(k.String("ERP_PROVIDER")), "frappe"),
		ERPTimeout:         parseDuration(k.String("ERP_TIMEOUT"), "15s"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "IDR"),
		CartTTL:            parseDuration(k.String("CART_TTL"), "12h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ConfigCacheTTL:     parseDuration(k.String("CONFIG_CACHE_TTL"), "5m"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "10m"),
		CatalogPageSize:    parseInt(k.String("CATALOG_PAGE_SIZE"), 50),
		CatalogWarmDelay:   parseDuration(k.String("CATALOG_WARM_DELAY"), "500ms"),
		CatalogWarmEnabled: parseBool(valueOrDefault(k.String("CATALOG_WARM_ENABLED"), "true")),
		ShareQueue:         valueOrDefault(k.String("SHARE_QUEUE"), "share"),
		ShareMaxRetry:      parseInt(k.String("SHARE_MAX_RETRY"), 5),
		CheckoutRatePerMin: parseInt(k.String("CHECKOUT_RATE_PER_MIN"), 30),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ERPProvider == "frappe" && cfg.ERPBaseURL == "" {
		return nil, errors.New("ERP_BASE_URL is required")
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

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
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
