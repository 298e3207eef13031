package shopping

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var (
	// ErrNotFound is returned when an item id is not on the list.
	ErrNotFound = errors.New("shopping item not found")
	// ErrEmptyName is returned when adding an item without a name.
	ErrEmptyName = errors.New("shopping item name is required")
)

// Item is a single row on a user's shopping list. Recipe may hold several
// recipe names joined with ", ".
type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Quantity  *float64  `json:"quantity"`
	Unit      string    `json:"unit"`
	Checked   bool      `json:"checked"`
	Recipe    string    `json:"recipe,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Amount renders the quantity and unit, e.g. "400 g". It is empty for
// unquantified items.
func (it Item) Amount() string {
	if it.Quantity == nil {
		return ""
	}
	q := strconv.FormatFloat(*it.Quantity, 'f', -1, 64)
	if it.Unit == "" {
		return q
	}
	return q + " " + it.Unit
}

// Store persists shopping items. Implementations exist for SQLite, Postgres,
// a JSON file and the REST backend.
type Store interface {
	List(ctx context.Context, userID string) ([]Item, error)
	Insert(ctx context.Context, item Item) error
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
}

// foldKey is the comparison form of names and units. A Caser is not safe
// for concurrent use, so one is built per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func cloneItem(it Item) Item {
	if it.Quantity != nil {
		q := *it.Quantity
		it.Quantity = &q
	}
	return it
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}
