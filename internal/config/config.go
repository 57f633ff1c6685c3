package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv                 string
	Port                   string
	Currency               string
	TaxRate                decimal.Decimal
	SaleRefPrefix          string
	DefaultReorderLevel    int
	DefaultReorderQuantity int
	CORSAllowedOrigins     []string
	LogFormat              string
	LogLevel               string
	MetricsNamespace       string
	MetricsEnabled         bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	taxRate, err := parseTaxRate(k.String("TAX_RATE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:                 valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                   valueOrDefault(k.String("PORT"), "8080"),
		Currency:               strings.ToUpper(valueOrDefault(k.String("CURRENCY"), "USD")),
		TaxRate:                taxRate,
		SaleRefPrefix:          valueOrDefault(k.String("SALE_REF_PREFIX"), "SALE"),
		DefaultReorderLevel:    parseInt(k.String("DEFAULT_REORDER_LEVEL"), 50),
		DefaultReorderQuantity: parseInt(k.String("DEFAULT_REORDER_QUANTITY"), 100),
		CORSAllowedOrigins:     splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogFormat:              valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:               valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:       valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "apotek"),
		MetricsEnabled:         parseBool(valueOrDefault(k.String("OBS_ENABLE_PROMETHEUS"), "true")),
	}

	if cfg.DefaultReorderLevel < 0 {
		return nil, fmt.Errorf("DEFAULT_REORDER_LEVEL must not be negative, got %d", cfg.DefaultReorderLevel)
	}
	if cfg.DefaultReorderQuantity <= 0 {
		return nil, fmt.Errorf("DEFAULT_REORDER_QUANTITY must be positive, got %d", cfg.DefaultReorderQuantity)
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

func parseTaxRate(value string) (decimal.Decimal, error) {
	base := strings.TrimSpace(value)
	if base == "" {
		base = "0.15"
	}
	rate, err := decimal.NewFromString(base)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TAX_RATE must be a decimal fraction, got %q", value)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("TAX_RATE must be in [0,1), got %s", rate)
	}
	return rate, nil
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

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	n, err := strconv.Atoi(base)
	if err != nil {
		return fallback
	}
	return n
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
