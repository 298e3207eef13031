package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pantry-planner/internal/logging"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/recipe"
)

// List is one user's shopping list. Every mutation is applied to the
// in-memory copy first and then written to the Store. A failed write is
// returned and logged but not rolled back; the next Reload brings the list
// back in line with the store (last write wins).
type List struct {
	mu     sync.Mutex
	userID string
	store  Store
	items  []Item
	logger *slog.Logger
	now    func() time.Time
}

// Load reads a user's list from store.
func Load(ctx context.Context, store Store, userID string, logger *slog.Logger) (*List, error) {
	items, err := store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	return &List{
		userID: userID,
		store:  store,
		items:  items,
		logger: logging.NewComponentLogger(logger, "shopping").With("user_id", userID),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// UserID returns the owner of the list.
func (l *List) UserID() string {
	return l.userID
}

// Items returns a copy of the current items.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneItems(l.items)
}

// Get returns the item with id.
func (l *List) Get(id string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	return cloneItem(l.items[i]), nil
}

// Reload replaces the in-memory items with the store's view.
func (l *List) Reload(ctx context.Context) error {
	items, err := l.store.List(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("failed to reload shopping list: %w", err)
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// Add puts a manual entry on the list. It is merged into an unchecked item
// with the same name and unit when one exists.
func (l *List) Add(ctx context.Context, name string, quantity *float64, unit, recipeName string) (MergeResult, error) {
	if strings.TrimSpace(name) == "" {
		return MergeResult{}, ErrEmptyName
	}
	return l.AddIngredients(ctx, []recipe.Ingredient{{Name: name, Quantity: quantity, Unit: unit}}, recipeName, nil)
}

// AddIngredients aggregates ingredients, subtracts pantry stock and merges the
// result into the list.
func (l *List) AddIngredients(ctx context.Context, ingredients []recipe.Ingredient, origin string, stock []pantry.Item) (MergeResult, error) {
	var agg Aggregator
	agg.Add(ingredients, origin)
	return l.apply(ctx, agg.Entries(), stock)
}

// AddRecipes runs one aggregation pass over several recipes, so an
// ingredient shared by two recipes is checked against the pantry once.
func (l *List) AddRecipes(ctx context.Context, recipes []recipe.Recipe, stock []pantry.Item) (MergeResult, error) {
	var agg Aggregator
	for _, r := range recipes {
		agg.Add(r.Ingredients, r.Title)
	}
	return l.apply(ctx, agg.Entries(), stock)
}

func (l *List) apply(ctx context.Context, entries []Aggregated, stock []pantry.Item) (MergeResult, error) {
	resolved := ResolveAll(entries, stock)

	l.mu.Lock()
	res := Merge(l.items, resolved, l.userID, l.now())
	l.items = res.Items
	res.Items = cloneItems(res.Items)
	l.mu.Unlock()

	var errs []error
	for _, it := range res.Inserted {
		if err := l.store.Insert(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("insert %s: %w", it.Name, err))
		}
	}
	for _, it := range res.Updated {
		if err := l.store.Update(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", it.Name, err))
		}
	}

	l.logger.Debug("merged ingredients",
		"requested", len(entries),
		"inserted", len(res.Inserted),
		"updated", len(res.Updated),
	)
	return res, l.persistErr("merge", errors.Join(errs...))
}

// Toggle flips the checked state of an item.
func (l *List) Toggle(ctx context.Context, id string) (Item, error) {
	return l.mutate(ctx, id, func(it *Item) { it.Checked = !it.Checked })
}

// SetChecked sets the checked state of an item.
func (l *List) SetChecked(ctx context.Context, id string, checked bool) (Item, error) {
	return l.mutate(ctx, id, func(it *Item) { it.Checked = checked })
}

// SetQuantity replaces the quantity of an item. A nil quantity clears it.
func (l *List) SetQuantity(ctx context.Context, id string, quantity *float64) (Item, error) {
	return l.mutate(ctx, id, func(it *Item) {
		if quantity == nil {
			it.Quantity = nil
			return
		}
		q := *quantity
		it.Quantity = &q
	})
}

func (l *List) mutate(ctx context.Context, id string, fn func(*Item)) (Item, error) {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return Item{}, ErrNotFound
	}
	fn(&l.items[i])
	l.items[i].UpdatedAt = l.now()
	item := cloneItem(l.items[i])
	l.mu.Unlock()

	return item, l.persistErr("update", l.store.Update(ctx, item))
}

// Remove deletes an item from the list.
func (l *List) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	i := l.indexOf(id)
	if i < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.mu.Unlock()

	return l.persistErr("delete", l.store.Delete(ctx, id))
}

// Clear empties the list and returns the number of items removed.
func (l *List) Clear(ctx context.Context) (int, error) {
	return l.removeWhere(ctx, func(Item) bool { return true })
}

// ClearChecked removes every checked item.
func (l *List) ClearChecked(ctx context.Context) (int, error) {
	return l.removeWhere(ctx, func(it Item) bool { return it.Checked })
}

func (l *List) removeWhere(ctx context.Context, match func(Item) bool) (int, error) {
	l.mu.Lock()
	var removed []string
	kept := l.items[:0]
	for _, it := range l.items {
		if match(it) {
			removed = append(removed, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	l.items = kept
	l.mu.Unlock()

	var errs []error
	for _, id := range removed {
		if err := l.store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	return len(removed), l.persistErr("clear", errors.Join(errs...))
}

func (l *List) persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	l.logger.Warn("shopping list write failed; local state kept", "op", op, "error", err)
	return fmt.Errorf("failed to persist shopping list %s: %w", op, err)
}

func (l *List) indexOf(id string) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
