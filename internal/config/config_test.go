package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "CATALOG_BASE_URL", "CATALOG_TIMEOUT", "CATALOG_TOKEN",
	"CATALOG_JWT_SECRET", "CATALOG_MAX_RETRIES", "SESSION_TTL", "SUBMIT_RATE", "SUBMIT_WINDOW",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, "http://localhost:9001", cfg.Catalog.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Catalog.Timeout)
	assert.Zero(t, cfg.Catalog.MaxRetries)
	assert.Empty(t, cfg.Catalog.Token)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Submit.Rate)
	assert.Equal(t, time.Minute, cfg.Submit.Window)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CATALOG_BASE_URL", "https://catalog.example.com/api")
	t.Setenv("CATALOG_TIMEOUT", "750ms")
	t.Setenv("CATALOG_JWT_SECRET", "0123456789abcdef")
	t.Setenv("CATALOG_MAX_RETRIES", "2")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("SUBMIT_RATE", "3")
	t.Setenv("SUBMIT_WINDOW", "10s")

	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "https://catalog.example.com/api", cfg.Catalog.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Catalog.Timeout)
	assert.Equal(t, "0123456789abcdef", cfg.Catalog.JWTSecret)
	assert.Equal(t, 2, cfg.Catalog.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Submit.Rate)
	assert.Equal(t, 10*time.Second, cfg.Submit.Window)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	file := filepath.Join(t.TempDir(), "local.env")
	require.NoError(t, os.WriteFile(file, []byte("PORT=7001\nCATALOG_TOKEN=secret-token\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CATALOG_TOKEN") })

	cfg, err := config.Load(file)
	require.NoError(t, err)

	// The environment wins over the file.
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "secret-token", cfg.Catalog.Token)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Port:     8080,
			LogLevel: "info",
			Catalog:  config.CatalogConfig{BaseURL: "http://localhost:9001", Timeout: time.Second},
			Session:  config.SessionConfig{TTL: time.Minute},
			Submit:   config.SubmitConfig{Rate: 1, Window: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "port out of range", mutate: func(c *config.Config) { c.Port = 70000 }, wantErr: "PORT"},
		{name: "unknown log level", mutate: func(c *config.Config) { c.LogLevel = "verbose" }, wantErr: "LOG_LEVEL"},
		{name: "relative base url", mutate: func(c *config.Config) { c.Catalog.BaseURL = "/hotels" }, wantErr: "CATALOG_BASE_URL"},
		{name: "ftp base url", mutate: func(c *config.Config) { c.Catalog.BaseURL = "ftp://host" }, wantErr: "CATALOG_BASE_URL"},
		{name: "zero timeout", mutate: func(c *config.Config) { c.Catalog.Timeout = 0 }, wantErr: "CATALOG_TIMEOUT"},
		{name: "negative retries", mutate: func(c *config.Config) { c.Catalog.MaxRetries = -1 }, wantErr: "CATALOG_MAX_RETRIES"},
		{name: "short secret", mutate: func(c *config.Config) { c.Catalog.JWTSecret = "short" }, wantErr: "at least 16"},
		{
			name: "token and secret",
			mutate: func(c *config.Config) {
				c.Catalog.Token = "t"
				c.Catalog.JWTSecret = "0123456789abcdef"
			},
			wantErr: "at most one",
		},
		{name: "zero ttl", mutate: func(c *config.Config) { c.Session.TTL = 0 }, wantErr: "SESSION_TTL"},
		{name: "zero rate", mutate: func(c *config.Config) { c.Submit.Rate = 0 }, wantErr: "SUBMIT_RATE"},
		{name: "zero window", mutate: func(c *config.Config) { c.Submit.Window = 0 }, wantErr: "SUBMIT_WINDOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := config.Config{LogLevel: "loud"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"PORT", "LOG_LEVEL", "CATALOG_BASE_URL", "SESSION_TTL", "SUBMIT_RATE"} {
		assert.Contains(t, err.Error(), key)
	}
}
