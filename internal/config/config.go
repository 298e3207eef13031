package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Store selects and locates the shopping list backend.
type Store struct {
	Backend string `toml:"backend"`
	DBPath  string `toml:"db_path"`
	DataDir string `toml:"data_dir"`
	UserID  string `toml:"user_id"`
}

// LLM selects the model used for recipe page extraction. Provider is
// "gemini" or "groq"; when empty it follows whichever key is set.
type LLM struct {
	Provider     string `toml:"provider"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	GroqAPIKey   string `toml:"groq_api_key"`
	Model        string `toml:"model"`
}

// Telegram Config
type Telegram struct {
	BotToken     string  `toml:"bot_token"`
	WebhookURL   string  `toml:"webhook_url"`
	AllowUserIDs []int64 `toml:"allow_user_ids"`
	AdminID      int64   `toml:"admin_id"`
}

// Postgres holds the managed database connection.
type Postgres struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
}

// Remote holds the REST backend connection.
type Remote struct {
	URL       string `toml:"url"`
	APIKey    string `toml:"api_key"`
	JWTSecret string `toml:"jwt_secret"`
}

// Server holds HTTP API settings.
type Server struct {
	Port         string   `toml:"port"`
	JWTSecret    string   `toml:"jwt_secret"`
	AllowOrigins []string `toml:"allow_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds the configuration for the application.
type Config struct {
	Store    Store    `toml:"store"`
	LLM      LLM      `toml:"llm"`
	Telegram Telegram `toml:"telegram"`
	Postgres Postgres `toml:"postgres"`
	Remote   Remote   `toml:"remote"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the expanded default configuration file path.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pantry-planner/config.toml")
}

// Load reads the TOML file at path when it exists, applies environment
// overrides, and validates the result. An empty path means the default path.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	resolved, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return resolved, false, nil
		}
		return "", false, fmt.Errorf("stat config %s: %w", resolved, err)
	}
	return resolved, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// IsAllowed reports whether a Telegram user may talk to the bot. An empty
// allow-list denies everyone.
func (t Telegram) IsAllowed(userID int64) bool {
	for _, id := range t.AllowUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
