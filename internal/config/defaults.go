package config

const (
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

const (
	defaultDataDir  = "~/.local/share/pantry-planner"
	defaultDBFile   = "pantry.db"
	defaultUserID   = "local"
	defaultPort     = "8080"
	defaultMaxConns = 4
)

// Default returns a configuration using the local SQLite backend.
func Default() Config {
	return Config{
		Store: Store{
			Backend: BackendSQLite,
			DataDir: defaultDataDir,
			UserID:  defaultUserID,
		},
		Postgres: Postgres{
			MaxConns: defaultMaxConns,
		},
		Server: Server{
			Port:         defaultPort,
			AllowOrigins: []string{"*"},
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
