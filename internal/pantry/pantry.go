package pantry

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Item is a user-tracked ingredient. Quantity is free text as typed by the
// user, an amount with an optional unit suffix ("500g", "2 cups").
type Item struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"ingredient_name"`
	Quantity  string     `json:"quantity"`
	Category  string     `json:"category,omitempty"`
	ExpiresAt *time.Time `json:"expiry_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

var (
	// ErrEmptyName is returned when adding an item without a name.
	ErrEmptyName = errors.New("pantry item name is required")
	// ErrNotFound is returned when an item id is not in the user's pantry.
	ErrNotFound = errors.New("pantry item not found")
)

// Store persists pantry items. Repository (SQLite), the Postgres store and
// the REST client implement it.
type Store interface {
	List(ctx context.Context, userID string) ([]Item, error)
	Add(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}

// quantityPattern accepts "1,000" style grouping, a dot decimal, or a comma
// decimal with one or two digits ("1,5").
var quantityPattern = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\d+,\d{1,2})\s*([a-zA-Z][a-zA-Z .]*)?$`)

// ParseQuantity splits a pantry quantity into amount and unit. ok is false
// when the text does not start with a number or carries anything else.
func ParseQuantity(s string) (amount float64, unit string, ok bool) {
	m := quantityPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", false
	}
	num := m[1]
	if before, after, found := strings.Cut(num, ","); found && len(after) <= 2 {
		num = before + "." + after
	} else {
		num = strings.ReplaceAll(num, ",", "")
	}
	amount, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, "", false
	}
	return amount, strings.TrimSpace(m[2]), true
}

// Expiring returns the items that expire before now+within, soonest first.
// Items already past their date are included.
func Expiring(items []Item, now time.Time, within time.Duration) []Item {
	limit := now.Add(within)
	var out []Item
	for _, it := range items {
		if it.ExpiresAt != nil && !it.ExpiresAt.After(limit) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	return out
}
