package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "", ProviderGemini, ProviderGroq:
	default:
		return fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider)
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendFile:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required for the postgres backend. Set DATABASE_URL")
		}
	case BackendRemote:
		if c.Remote.URL == "" {
			return errors.New("remote.url is required for the remote backend. Set REMOTE_URL")
		}
		if c.Remote.JWTSecret == "" {
			return errors.New("remote.jwt_secret is required for the remote backend. Set REMOTE_JWT_SECRET")
		}
	default:
		return fmt.Errorf("store.backend: unsupported value %q", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateServer() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("server.port: invalid value %q", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is required. Set API_JWT_SECRET")
	}
	if c.Telegram.BotToken != "" && c.Telegram.WebhookURL == "" {
		return errors.New("telegram.webhook_url is required when a bot token is set. Set TELEGRAM_WEBHOOK_URL")
	}
	return nil
}
