package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// applyEnv lets the environment override the file, the way the deployed
// bot is configured.
func (c *Config) applyEnv() error {
	setString(&c.Store.DBPath, "PANTRY_DB_PATH")
	setString(&c.Store.DataDir, "PANTRY_DATA_DIR")
	setString(&c.Store.Backend, "PANTRY_STORE")
	setString(&c.Store.UserID, "PANTRY_USER")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.LLM.GroqAPIKey, "GROQ_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.WebhookURL, "TELEGRAM_WEBHOOK_URL")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Remote.URL, "REMOTE_URL")
	setString(&c.Remote.APIKey, "REMOTE_API_KEY")
	setString(&c.Remote.JWTSecret, "REMOTE_JWT_SECRET")
	setString(&c.Server.JWTSecret, "API_JWT_SECRET")
	setString(&c.Server.Port, "PORT")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if v, ok := lookup("TELEGRAM_ALLOW_USER_IDS"); ok {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ALLOW_USER_IDS: %w", err)
		}
		c.Telegram.AllowUserIDs = ids
	}
	if v, ok := lookup("TELEGRAM_ADMIN_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ADMIN_ID: invalid id %q", v)
		}
		c.Telegram.AdminID = id
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
		if c.LLM.GeminiAPIKey == "" && c.LLM.GroqAPIKey != "" {
			c.LLM.Provider = ProviderGroq
		}
	}
	if strings.TrimSpace(c.Store.DataDir) == "" {
		c.Store.DataDir = defaultDataDir
	}
	if c.Store.DataDir, err = expandPath(c.Store.DataDir); err != nil {
		return fmt.Errorf("store.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Store.DBPath) == "" {
		c.Store.DBPath = filepath.Join(c.Store.DataDir, defaultDBFile)
	}
	if c.Store.DBPath, err = expandPath(c.Store.DBPath); err != nil {
		return fmt.Errorf("store.db_path: %w", err)
	}
	c.Store.UserID = strings.TrimSpace(c.Store.UserID)
	if c.Store.UserID == "" {
		c.Store.UserID = defaultUserID
	}

	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = defaultMaxConns
	}
	c.Remote.URL = strings.TrimRight(strings.TrimSpace(c.Remote.URL), "/")
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
