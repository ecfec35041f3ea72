package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	assert.Nil(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouterModel)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100000, cfg.MaxConcurrency)
	assert.Nil(t, cfg.Postgres)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENROUTER_MODEL", "openai/gpt-4o")
	t.Setenv("SERPER_API_KEY", "serper-key")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("MAX_CONCURRENCY", "8")

	cfg, err := FromEnv()
	assert.Nil(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "or-key", cfg.OpenRouterAPIKey)
	assert.Equal(t, "openai/gpt-4o", cfg.OpenRouterModel)
	assert.Equal(t, "serper-key", cfg.SerperAPIKey)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, "127.0.0.1:9090", cfg.BindAddr())
	assert.Equal(t, "http://127.0.0.1:9090", cfg.ServerURL())
}

func TestFromEnvRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := FromEnv()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "PORT")

	t.Setenv("PORT", "8080")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err = FromEnv()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "REQUEST_TIMEOUT")

	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("MAX_CONCURRENCY", "many")
	_, err = FromEnv()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENCY")
}

func TestFromEnvPostgresDSN(t *testing.T) {
	t.Setenv("PG_DSN", "host=dbhost port=5433 user=svc password=secret dbname=ragline sslmode=require")

	cfg, err := FromEnv()
	assert.Nil(t, err)
	assert.NotNil(t, cfg.Postgres)
	assert.Equal(t, "dbhost", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "require", cfg.Postgres.SSLMode)
}

func TestFromEnvBadPostgresDSN(t *testing.T) {
	t.Setenv("PG_DSN", "host= port=0 sslmode=weird")

	_, err := FromEnv()
	assert.NotNil(t, err)
}
