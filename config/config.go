package config

import (
	"fmt"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/mcuadros/go-defaults"
	"github.com/spf13/cast"

	"github.com/ragline/ragline/store/postgres"
)

// Config is the service configuration, loaded from the environment with
// struct-tag defaults.
type Config struct {
	Host     string `default:"0.0.0.0"`
	Port     int    `default:"8080"`
	LogLevel string `default:"info"`

	/**
	 * OpenRouter chat-completion access. The service refuses to start
	 * without an API key since every agent request needs the model.
	 */
	OpenRouterAPIKey string
	OpenRouterModel  string `default:"openai/gpt-4o-mini"`

	/**
	 * serper.dev web search access. Optional: without a key the data
	 * retriever runs with an empty result set.
	 */
	SerperAPIKey string

	RequestTimeout time.Duration `default:"60s"`
	MaxConcurrency int           `default:"100000"`

	// non-nil when PG_DSN is set; run history then goes to PostgreSQL
	// instead of memory
	Postgres *postgres.Config
}

// FromEnv builds a Config from environment variables, falling back to the
// struct-tag defaults.
//
// Recognized variables: HOST, PORT, LOG_LEVEL, OPENROUTER_API_KEY,
// OPENROUTER_MODEL, SERPER_API_KEY, REQUEST_TIMEOUT, MAX_CONCURRENCY,
// PG_DSN.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	defaults.SetDefaults(cfg)

	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := cast.ToIntE(v)
		if err != nil {
			return nil, errors.BadRequestf("PORT %q is not a number", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.OpenRouterAPIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.OpenRouterModel = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		cfg.SerperAPIKey = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		timeout, err := cast.ToDurationE(v)
		if err != nil {
			return nil, errors.BadRequestf("REQUEST_TIMEOUT %q is not a duration", v)
		}
		cfg.RequestTimeout = timeout
	}
	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, errors.BadRequestf("MAX_CONCURRENCY %q is not a number", v)
		}
		cfg.MaxConcurrency = n
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		pgConfig, err := postgres.ParseDSN(v)
		if err != nil {
			return nil, err
		}
		cfg.Postgres = pgConfig
	}

	return cfg, nil
}

// BindAddr returns the host:port the HTTP server listens on.
func (c *Config) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerURL returns the externally visible base URL, for startup logs.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
