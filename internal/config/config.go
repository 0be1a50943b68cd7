package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the gateway configuration.
type Config struct {
	Port     int
	LogLevel string

	Catalog CatalogConfig
	Session SessionConfig
	Submit  SubmitConfig
}

// CatalogConfig configures the catalog client.
type CatalogConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Token      string
	JWTSecret  string
	MaxRetries int
}

// SessionConfig configures the session registry.
type SessionConfig struct {
	TTL time.Duration
}

// SubmitConfig configures per-client submission limiting.
type SubmitConfig struct {
	Rate   int
	Window time.Duration
}

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// Load reads .env files, then the environment, applying defaults.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CATALOG_BASE_URL", "http://localhost:9001")
	v.SetDefault("CATALOG_TIMEOUT", 2*time.Second)
	v.SetDefault("CATALOG_TOKEN", "")
	v.SetDefault("CATALOG_JWT_SECRET", "")
	v.SetDefault("CATALOG_MAX_RETRIES", 0)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("SUBMIT_RATE", 10)
	v.SetDefault("SUBMIT_WINDOW", time.Minute)

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		Catalog: CatalogConfig{
			BaseURL:    v.GetString("CATALOG_BASE_URL"),
			Timeout:    v.GetDuration("CATALOG_TIMEOUT"),
			Token:      v.GetString("CATALOG_TOKEN"),
			JWTSecret:  v.GetString("CATALOG_JWT_SECRET"),
			MaxRetries: v.GetInt("CATALOG_MAX_RETRIES"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("SESSION_TTL"),
		},
		Submit: SubmitConfig{
			Rate:   v.GetInt("SUBMIT_RATE"),
			Window: v.GetDuration("SUBMIT_WINDOW"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all configuration is present and valid.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if u, err := url.Parse(c.Catalog.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, "CATALOG_BASE_URL must be an absolute http(s) URL")
	}
	if c.Catalog.Timeout <= 0 {
		problems = append(problems, "CATALOG_TIMEOUT must be positive")
	}
	if c.Catalog.MaxRetries < 0 {
		problems = append(problems, "CATALOG_MAX_RETRIES must not be negative")
	}
	if c.Catalog.Token != "" && c.Catalog.JWTSecret != "" {
		problems = append(problems, "set at most one of CATALOG_TOKEN and CATALOG_JWT_SECRET")
	}
	if c.Catalog.JWTSecret != "" && len(c.Catalog.JWTSecret) < 16 {
		problems = append(problems, "CATALOG_JWT_SECRET must be at least 16 characters")
	}

	if c.Session.TTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.Submit.Rate < 1 {
		problems = append(problems, "SUBMIT_RATE must be at least 1")
	}
	if c.Submit.Window <= 0 {
		problems = append(problems, "SUBMIT_WINDOW must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	switch s {
	case "debug", "info", "warn", "error":
		return level, level.UnmarshalText([]byte(s))
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
