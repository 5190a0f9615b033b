package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	StoreBackend   string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	LLMAPIKey      string        `mapstructure:"LLM_API_KEY"`
	LLMBaseURL     string        `mapstructure:"LLM_BASE_URL"`
	LLMModel       string        `mapstructure:"LLM_MODEL"`
	LLMTimeout     time.Duration `mapstructure:"LLM_TIMEOUT"`
	AlertMode      string        `mapstructure:"ALERT_MODE"`
	AutoSeed       bool          `mapstructure:"AUTO_SEED"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	UploadLimit    string        `mapstructure:"UPLOAD_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LLM_BASE_URL", "https://api.cerebras.ai/v1")
	v.SetDefault("LLM_MODEL", "llama-3.1-8b")
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("ALERT_MODE", "always")
	v.SetDefault("AUTO_SEED", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "90s")
	v.SetDefault("UPLOAD_LIMIT", "20M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "STORE_BACKEND", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"REDIS_URL", "LLM_BASE_URL", "LLM_MODEL", "LLM_TIMEOUT", "ALERT_MODE",
		"AUTO_SEED", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"REQUEST_TIMEOUT", "UPLOAD_LIMIT",
	} {
		_ = v.BindEnv(key)
	}
	// Provider-specific key names are consulted in order when LLM_API_KEY is unset.
	_ = v.BindEnv("LLM_API_KEY", "LLM_API_KEY", "CEREBRAS_API_KEY", "OPENAI_API_KEY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMConfigured reports whether a completion provider credential is present.
// Without one the assistant runs in degraded mode.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey != ""
}

// Validate checks that the configuration is safe to run. The backing store
// must be known and its connection URL present.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", BackendPostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND is %q", BackendRedis)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q, or %q, got %q",
			BackendMemory, BackendPostgres, BackendRedis, c.StoreBackend)
	}

	if c.AlertMode != "always" && c.AlertMode != "threshold" {
		return fmt.Errorf("ALERT_MODE must be \"always\" or \"threshold\", got %q", c.AlertMode)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RequestTimeout < c.LLMTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must not be shorter than LLM_TIMEOUT (%s)", c.RequestTimeout, c.LLMTimeout)
	}
	return nil
}
