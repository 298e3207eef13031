package app

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/pantry"
	"pantry-planner/internal/recipe"
)

// StockLine adds a typed line such as "500 g rice" to the user's pantry.
// expires may be nil.
func (a *App) StockLine(ctx context.Context, userID, line string, expires *time.Time) (*pantry.Item, error) {
	ing, ok := recipe.ParseIngredientLine(line)
	if !ok {
		return nil, pantry.ErrEmptyName
	}

	item := &pantry.Item{UserID: userID, Name: ing.Name, ExpiresAt: expires}
	if ing.Quantity != nil {
		item.Quantity = strings.TrimSpace(strconv.FormatFloat(*ing.Quantity, 'f', -1, 64) + " " + ing.Unit)
	}
	if err := a.Pantry.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemovePantryItem deletes id when it belongs to userID. Pantry stores
// delete by id alone.
func (a *App) RemovePantryItem(ctx context.Context, userID, id string) error {
	items, err := a.Pantry.List(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(items, func(it pantry.Item) bool { return it.ID == id }) {
		return fmt.Errorf("%w: %s", pantry.ErrNotFound, id)
	}
	return a.Pantry.Delete(ctx, id)
}

// ExpiringPantry lists the user's items that expire within the window,
// soonest first.
func (a *App) ExpiringPantry(ctx context.Context, userID string, within time.Duration) ([]pantry.Item, error) {
	items, err := a.Pantry.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pantry.Expiring(items, time.Now(), within), nil
}
