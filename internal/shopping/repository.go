package shopping

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles persistence of shopping items in SQLite.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// List returns a user's items in the order they were added.
func (r *Repository) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, unit, checked, recipe, created_at, updated_at
		FROM shopping_items WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it  Item
			qty sql.NullFloat64
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &qty, &it.Unit, &it.Checked, &it.Recipe, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		if qty.Valid {
			q := qty.Float64
			it.Quantity = &q
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Insert creates a new shopping item.
func (r *Repository) Insert(ctx context.Context, item Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_items (id, user_id, name, quantity, unit, checked, recipe, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, nullFloat(item.Quantity), item.Unit, item.Checked, item.Recipe, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shopping item: %w", err)
	}
	return nil
}

// Update overwrites an existing shopping item.
func (r *Repository) Update(ctx context.Context, item Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shopping_items
		SET name = ?, quantity = ?, unit = ?, checked = ?, recipe = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, nullFloat(item.Quantity), item.Unit, item.Checked, item.Recipe, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update shopping item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update shopping item %s: %w", item.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a shopping item. Deleting a missing item is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
