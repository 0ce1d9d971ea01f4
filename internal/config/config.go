// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

// DefaultKASIBaseURL is the public endpoint of the KASI lunar calendar service.
const DefaultKASIBaseURL = "https://apis.data.go.kr/B090041/openapi/service/LrsrCldInfoService"

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file holding the lookup cache

	// Authentication
	APIKey string // API key for authenticated endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Cross reference (KASI 음양력 정보 service)
	KASIServiceKey     string        // data.go.kr service key; empty disables lookups
	KASIBaseURL        string        // service root, without the operation name
	CrossRefTimeout    time.Duration // per-chart lookup budget
	CrossRefRatePerSec int           // outbound request rate

	// Engine conventions
	ZiConvention       string // previous_day, next_day, split
	YearBoundary       string // ipchun, lunar_new_year
	ElementCounting    string // stems, all
	BalanceBalancedMax int    // largest element spread called balanced
	BalanceSlightMax   int    // largest spread called slightly imbalanced
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// No-op in production where env vars are set directly
	_ = godotenv.Load()

	defaults := saju.DefaultOptions()
	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/manseryeok.db")

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Cross reference
	cfg.KASIServiceKey = getEnv("KASI_SERVICE_KEY", getEnv("DATA_GO_KR_SERVICE_KEY", ""))
	cfg.KASIBaseURL = getEnv("KASI_BASE_URL", DefaultKASIBaseURL)
	cfg.CrossRefTimeout = getEnvDuration("CROSSREF_TIMEOUT", defaults.CrossReferenceTimeout)
	cfg.CrossRefRatePerSec = getEnvInt("CROSSREF_RATE_PER_SEC", 5)

	// Engine conventions
	cfg.ZiConvention = getEnv("ZI_CONVENTION", string(defaults.Zi))
	cfg.YearBoundary = getEnv("YEAR_BOUNDARY", string(defaults.YearBoundary))
	cfg.ElementCounting = getEnv("ELEMENT_COUNTING", string(defaults.Counting))
	cfg.BalanceBalancedMax = getEnvInt("BALANCE_BALANCED_MAX", defaults.Thresholds.BalancedMax)
	cfg.BalanceSlightMax = getEnvInt("BALANCE_SLIGHT_MAX", defaults.Thresholds.SlightlyImbalancedMax)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if c.KASIBaseURL == "" {
		errs = append(errs, errors.New("KASI_BASE_URL must not be empty"))
	}
	if c.CrossRefRatePerSec < 1 {
		errs = append(errs, fmt.Errorf("CROSSREF_RATE_PER_SEC must be positive, got %d", c.CrossRefRatePerSec))
	}

	// Engine conventions are validated by the engine itself
	if err := c.EngineOptions().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EngineOptions converts the convention settings to engine options.
func (c *Config) EngineOptions() saju.Options {
	return saju.Options{
		Zi:           saju.ZiConvention(c.ZiConvention),
		YearBoundary: saju.YearBoundary(c.YearBoundary),
		Counting:     saju.ElementCounting(c.ElementCounting),
		Thresholds: saju.BalanceThresholds{
			BalancedMax:           c.BalanceBalancedMax,
			SlightlyImbalancedMax: c.BalanceSlightMax,
		},
		CrossReferenceTimeout: c.CrossRefTimeout,
	}
}

// CrossReferenceEnabled reports whether a KASI service key is configured.
func (c *Config) CrossReferenceEnabled() bool {
	return c.KASIServiceKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration reads a Go duration ("3s", "500ms") with a default fallback.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
