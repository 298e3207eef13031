// Package postgres stores shopping lists and pantries in a managed Postgres
// database.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pantry-planner/internal/pantry"
	"pantry-planner/internal/shopping"
)

// Connect opens a pool for dsn, pings it, and ensures the schema exists.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shopping_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			quantity DOUBLE PRECISION,
			unit TEXT NOT NULL DEFAULT '',
			checked BOOLEAN NOT NULL DEFAULT FALSE,
			recipe TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shopping_items_user ON shopping_items (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS pantry_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			ingredient_name TEXT NOT NULL,
			quantity TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			expiry_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pantry_items_user ON pantry_items (user_id)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Store is a shopping.Store over a pgx pool.
type Store struct {
	db *pgxpool.Pool
}

var (
	_ shopping.Store = (*Store)(nil)
	_ pantry.Store   = (*PantryStore)(nil)
)

// NewStore creates a Store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// List returns the user's items in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]shopping.Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, quantity, unit, checked, recipe, created_at, updated_at
		FROM shopping_items
		WHERE user_id = $1
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer rows.Close()

	items := []shopping.Item{}
	for rows.Next() {
		var it shopping.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity, &it.Unit, &it.Checked, &it.Recipe, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Insert adds a new row.
func (s *Store) Insert(ctx context.Context, item shopping.Item) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO shopping_items (id, user_id, name, quantity, unit, checked, recipe, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.UserID, item.Name, item.Quantity, item.Unit, item.Checked, item.Recipe, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shopping item: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of an existing row.
func (s *Store) Update(ctx context.Context, item shopping.Item) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE shopping_items
		SET name = $1, quantity = $2, unit = $3, checked = $4, recipe = $5, updated_at = $6
		WHERE id = $7`,
		item.Name, item.Quantity, item.Unit, item.Checked, item.Recipe, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update shopping item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", shopping.ErrNotFound, item.ID)
	}
	return nil
}

// Delete removes a row. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM shopping_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}
	return nil
}

// PantryStore is a pantry.Store over a pgx pool.
type PantryStore struct {
	db *pgxpool.Pool
}

// NewPantryStore creates a PantryStore on pool.
func NewPantryStore(pool *pgxpool.Pool) *PantryStore {
	return &PantryStore{db: pool}
}

// List returns the user's pantry ordered by ingredient name.
func (p *PantryStore) List(ctx context.Context, userID string) ([]pantry.Item, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, user_id, ingredient_name, quantity, category, expiry_date, created_at
		FROM pantry_items
		WHERE user_id = $1
		ORDER BY lower(ingredient_name)`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pantry.Item, error) {
		var it pantry.Item
		err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity, &it.Category, &it.ExpiresAt, &it.CreatedAt)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan pantry item: %w", err)
	}
	if items == nil {
		items = []pantry.Item{}
	}
	return items, nil
}

// Add stores a new pantry item and fills its ID and CreatedAt.
func (p *PantryStore) Add(ctx context.Context, item *pantry.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return pantry.ErrEmptyName
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO pantry_items (id, user_id, ingredient_name, quantity, category, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.UserID, item.Name, item.Quantity, item.Category, item.ExpiresAt, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pantry item: %w", err)
	}
	return nil
}

// Delete removes a pantry item.
func (p *PantryStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM pantry_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}
