package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"pantry-planner/internal/clipper"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/logging"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/postgres"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/remote"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/storage"
)

// RecipeClipper turns a recipe URL into ingredients.
type RecipeClipper interface {
	Clip(ctx context.Context, url string) (*recipe.Recipe, error)
}

// App holds the application's dependencies.
type App struct {
	Shopping *shopping.Service
	Pantry   pantry.Store
	Recipes  *recipe.Repository
	Clipper  RecipeClipper
	Metrics  *metrics.Store
	DataDir  string

	logger  *slog.Logger
	closers []func() error
}

// Deps are the parts New wires together. Recipes, Clipper and Metrics may be
// nil.
type Deps struct {
	Store   shopping.Store
	Pantry  pantry.Store
	Recipes *recipe.Repository
	Clipper RecipeClipper
	Metrics *metrics.Store
	DataDir string
	Logger  *slog.Logger
}

// New creates an App from already opened dependencies.
func New(d Deps) *App {
	logger := logging.NewComponentLogger(d.Logger, "app")
	return &App{
		Shopping: shopping.NewService(d.Store, d.Pantry, d.Logger),
		Pantry:   d.Pantry,
		Recipes:  d.Recipes,
		Clipper:  d.Clipper,
		Metrics:  d.Metrics,
		DataDir:  d.DataDir,
		logger:   logger,
	}
}

// Open builds the App described by cfg. Recipes and metrics always live in
// the local SQLite database; the shopping list and pantry follow
// cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.NewDB(cfg.Store.DBPath)
	if err != nil {
		return nil, err
	}
	closers := []func() error{db.Close}

	deps := Deps{
		Recipes: recipe.NewRepository(db.SQL),
		Metrics: metrics.NewStore(db.SQL),
		DataDir: cfg.Store.DataDir,
		Logger:  logger,
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		deps.Store = shopping.NewRepository(db.SQL)
		deps.Pantry = pantry.NewRepository(db.SQL)
	case config.BackendFile:
		fs, err := storage.NewFileStore(filepath.Join(cfg.Store.DataDir, "lists"))
		if err != nil {
			db.Close()
			return nil, err
		}
		deps.Store = fs
		deps.Pantry = pantry.NewRepository(db.SQL)
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		if err != nil {
			db.Close()
			return nil, err
		}
		closers = append(closers, func() error { pool.Close(); return nil })
		deps.Store = postgres.NewStore(pool)
		deps.Pantry = postgres.NewPantryStore(pool)
	case config.BackendRemote:
		client, err := remote.NewClient(remote.Config{
			BaseURL:   cfg.Remote.URL,
			APIKey:    cfg.Remote.APIKey,
			JWTSecret: cfg.Remote.JWTSecret,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		deps.Store = remote.NewStore(client)
		deps.Pantry = remote.NewPantryStore(client)
	default:
		db.Close()
		return nil, fmt.Errorf("store.backend: unsupported value %q", cfg.Store.Backend)
	}

	textGen, closeLLM, err := newTextGenerator(ctx, cfg.LLM)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	if closeLLM != nil {
		closers = append(closers, closeLLM)
	}
	deps.Clipper = clipper.NewClipper(textGen, deps.Metrics, logger)

	a := New(deps)
	a.closers = closers
	a.logger.Debug("app opened", "backend", cfg.Store.Backend, "llm", textGen != nil)
	return a, nil
}

// newTextGenerator returns nil when the selected provider has no key.
// Pages without structured ingredients then cannot be imported.
func newTextGenerator(ctx context.Context, cfg config.LLM) (llm.TextGenerator, func() error, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, nil, nil
		}
		groq, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return groq, nil, nil
	default:
		if cfg.GeminiAPIKey == "" {
			return nil, nil, nil
		}
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini.Close, nil
	}
}

// Close releases every resource opened by Open.
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
