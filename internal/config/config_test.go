package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/manseryeok-api/internal/saju"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
	if cfg.KASIBaseURL != DefaultKASIBaseURL {
		t.Errorf("KASIBaseURL = %q, want %q", cfg.KASIBaseURL, DefaultKASIBaseURL)
	}
	if cfg.CrossReferenceEnabled() {
		t.Error("CrossReferenceEnabled() = true without a service key")
	}

	opts := cfg.EngineOptions()
	if opts != saju.DefaultOptions() {
		t.Errorf("EngineOptions() = %+v, want defaults %+v", opts, saju.DefaultOptions())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()

	os.Setenv("PORT", "3000")
	os.Setenv("ENV", "production")
	os.Setenv("DATABASE_PATH", "/data/test.db")
	os.Setenv("API_KEY", "secret-key-123")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("KASI_SERVICE_KEY", "kasi-key")
	os.Setenv("CROSSREF_TIMEOUT", "750ms")
	os.Setenv("CROSSREF_RATE_PER_SEC", "2")
	os.Setenv("ZI_CONVENTION", "split")
	os.Setenv("YEAR_BOUNDARY", "lunar_new_year")
	os.Setenv("ELEMENT_COUNTING", "all")
	os.Setenv("BALANCE_BALANCED_MAX", "2")
	os.Setenv("BALANCE_SLIGHT_MAX", "4")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if !cfg.CrossReferenceEnabled() {
		t.Error("CrossReferenceEnabled() = false, want true")
	}
	if cfg.CrossRefRatePerSec != 2 {
		t.Errorf("CrossRefRatePerSec = %d, want 2", cfg.CrossRefRatePerSec)
	}

	opts := cfg.EngineOptions()
	want := saju.Options{
		Zi:                    saju.ZiSplit,
		YearBoundary:          saju.YearBoundaryLunarNewYear,
		Counting:              saju.CountAll,
		Thresholds:            saju.BalanceThresholds{BalancedMax: 2, SlightlyImbalancedMax: 4},
		CrossReferenceTimeout: 750 * time.Millisecond,
	}
	if opts != want {
		t.Errorf("EngineOptions() = %+v, want %+v", opts, want)
	}
}

func TestLoad_LegacyServiceKey(t *testing.T) {
	clearEnv()
	os.Setenv("DATA_GO_KR_SERVICE_KEY", "legacy-key")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.KASIServiceKey != "legacy-key" {
		t.Errorf("KASIServiceKey = %q, want %q", cfg.KASIServiceKey, "legacy-key")
	}
}

func TestLoad_InvalidConvention(t *testing.T) {
	clearEnv()
	os.Setenv("ZI_CONVENTION", "whenever")
	defer clearEnv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() with bad ZI_CONVENTION: want error")
	}
	if !strings.Contains(err.Error(), "zi convention") {
		t.Errorf("Load() error = %v, want mention of zi convention", err)
	}
}

// validConfig returns a development config that passes validation.
func validConfig() Config {
	d := saju.DefaultOptions()
	return Config{
		Port:               8080,
		Env:                EnvDevelopment,
		DatabasePath:       "./data/test.db",
		LogLevel:           "info",
		LogFormat:          "text",
		KASIBaseURL:        DefaultKASIBaseURL,
		CrossRefTimeout:    d.CrossReferenceTimeout,
		CrossRefRatePerSec: 5,
		ZiConvention:       string(d.Zi),
		YearBoundary:       string(d.YearBoundary),
		ElementCounting:    string(d.Counting),
		BalanceBalancedMax: d.Thresholds.BalancedMax,
		BalanceSlightMax:   d.Thresholds.SlightlyImbalancedMax,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"valid production config", func(c *Config) {
			c.Env = EnvProduction
			c.APIKey = "required-in-prod"
			c.LogFormat = "json"
		}, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"empty KASI base URL", func(c *Config) { c.KASIBaseURL = "" }, true},
		{"zero rate", func(c *Config) { c.CrossRefRatePerSec = 0 }, true},
		{"negative timeout", func(c *Config) { c.CrossRefTimeout = -time.Second }, true},
		{"unknown year boundary", func(c *Config) { c.YearBoundary = "solstice" }, true},
		{"unknown counting", func(c *Config) { c.ElementCounting = "branches" }, true},
		{"inverted thresholds", func(c *Config) {
			c.BalanceBalancedMax = 3
			c.BalanceSlightMax = 1
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
		"KASI_SERVICE_KEY", "DATA_GO_KR_SERVICE_KEY", "KASI_BASE_URL",
		"CROSSREF_TIMEOUT", "CROSSREF_RATE_PER_SEC",
		"ZI_CONVENTION", "YEAR_BOUNDARY", "ELEMENT_COUNTING",
		"BALANCE_BALANCED_MAX", "BALANCE_SLIGHT_MAX",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
