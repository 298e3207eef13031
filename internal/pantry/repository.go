package pantry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository handles persistence of pantry items.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new pantry repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Add stores a new pantry item and fills its ID and CreatedAt.
func (r *Repository) Add(ctx context.Context, item *Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return ErrEmptyName
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pantry_items (id, user_id, name, quantity, category, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, item.Quantity, item.Category, nullTime(item.ExpiresAt), item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pantry item: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an existing item.
func (r *Repository) Update(ctx context.Context, item Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pantry_items SET name = ?, quantity = ?, category = ?, expires_at = ?
		WHERE id = ?`,
		item.Name, item.Quantity, item.Category, nullTime(item.ExpiresAt), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pantry item %s not found", item.ID)
	}
	return nil
}

// Delete removes a pantry item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}

// List returns a user's pantry ordered by name.
func (r *Repository) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, category, expires_at, created_at
		FROM pantry_items WHERE user_id = ?
		ORDER BY name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it      Item
			expires sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity, &it.Category, &expires, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			it.ExpiresAt = &t
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
