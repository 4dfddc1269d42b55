package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoading(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-123")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", config.Environment)
		assert.Equal(t, 8080, config.Port)
		assert.Equal(t, "info", config.LogLevel)
		assert.Equal(t, "localhost:6379", config.Cache.Addr)
		assert.Equal(t, 300, config.Cache.TTL)
		assert.True(t, config.Auth.Enabled)
		assert.Equal(t, "test-secret-123", config.Auth.JWT.Secret)
		assert.False(t, config.Tracing.Enabled)
	})

	t.Run("env var precedence", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-123")
		t.Setenv("PORT", "7777")
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("DATABASE_URL", "postgres://dircore:pw@db:5432/dircore")
		t.Setenv("VALKEY_ADDR", "cache:6379")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7777, config.Port)
		assert.Equal(t, "warn", config.LogLevel)
		assert.Equal(t, "postgres://dircore:pw@db:5432/dircore", config.Database.Postgres.URL)
		assert.Equal(t, "cache:6379", config.Cache.Addr)
	})

	t.Run("otlp endpoint enables tracing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-123")
		t.Setenv("OTLP_ENDPOINT", "collector:4317")

		config, err := Load()
		require.NoError(t, err)

		assert.True(t, config.Tracing.Enabled)
		assert.Equal(t, "collector:4317", config.Tracing.OTLPEndpoint)
	})

	t.Run("missing JWT secret fails when auth enabled", func(t *testing.T) {
		os.Unsetenv("JWT_SECRET")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret")
	})
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "test",
			Port:        8080,
			LogLevel:    "info",
			Cache:       CacheConfig{Addr: "localhost:6379", TTL: 300},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(valid()))
	})

	t.Run("bad port", func(t *testing.T) {
		c := valid()
		c.Port = 0
		assert.Error(t, validateConfig(c))
	})

	t.Run("bad log level", func(t *testing.T) {
		c := valid()
		c.LogLevel = "verbose"
		assert.Error(t, validateConfig(c))
	})

	t.Run("bad environment", func(t *testing.T) {
		c := valid()
		c.Environment = "qa"
		assert.Error(t, validateConfig(c))
	})

	t.Run("zero cache ttl", func(t *testing.T) {
		c := valid()
		c.Cache.TTL = 0
		assert.Error(t, validateConfig(c))
	})

	t.Run("rate limit enabled with zero budget", func(t *testing.T) {
		c := valid()
		c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: 0}
		assert.Error(t, validateConfig(c))
	})
}
