package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pantry-planner/internal/pantry"
	"pantry-planner/internal/shopping"
)

const (
	shoppingTable = "shopping_items"
	pantryTable   = "pantry_items"

	insertPrefer = "return=minimal,resolution=ignore-duplicates"
)

// Store is the shopping list and pantry backed by the REST API.
type Store struct {
	client *Client
}

var (
	_ shopping.Store = (*Store)(nil)
	_ pantry.Store   = (*PantryStore)(nil)
)

// NewStore wraps client as a shopping.Store.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func eq(v string) string {
	return "eq." + v
}

// List returns the user's items in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]shopping.Item, error) {
	items := []shopping.Item{}
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  shoppingTable,
		query:  url.Values{"user_id": {eq(userID)}, "order": {"created_at.asc"}},
		userID: userID,
	}, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	return items, nil
}

// Insert creates a row.
func (s *Store) Insert(ctx context.Context, item shopping.Item) error {
	err := s.client.do(ctx, request{
		method: http.MethodPost,
		table:  shoppingTable,
		userID: item.UserID,
		body:   item,
		prefer: insertPrefer,
		insert: true,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to insert shopping item: %w", err)
	}
	return nil
}

// Update overwrites the row with the item's id.
func (s *Store) Update(ctx context.Context, item shopping.Item) error {
	var updated []shopping.Item
	err := s.client.do(ctx, request{
		method: http.MethodPatch,
		table:  shoppingTable,
		query:  url.Values{"id": {eq(item.ID)}},
		userID: item.UserID,
		body:   item,
		prefer: "return=representation",
	}, &updated)
	if err != nil {
		return fmt.Errorf("failed to update shopping item: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("%w: %s", shopping.ErrNotFound, item.ID)
	}
	return nil
}

// Delete removes the row with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.client.do(ctx, request{
		method: http.MethodDelete,
		table:  shoppingTable,
		query:  url.Values{"id": {eq(id)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}
	return nil
}

// PantryStore is the pantry backed by the REST API.
type PantryStore struct {
	client *Client
}

// NewPantryStore wraps client as a pantry.Store.
func NewPantryStore(client *Client) *PantryStore {
	return &PantryStore{client: client}
}

// List returns the user's pantry ordered by ingredient name.
func (p *PantryStore) List(ctx context.Context, userID string) ([]pantry.Item, error) {
	items := []pantry.Item{}
	err := p.client.do(ctx, request{
		method: http.MethodGet,
		table:  pantryTable,
		query:  url.Values{"user_id": {eq(userID)}, "order": {"ingredient_name.asc"}},
		userID: userID,
	}, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	return items, nil
}

// Add creates a pantry row and fills the item's ID and CreatedAt.
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
	err := p.client.do(ctx, request{
		method: http.MethodPost,
		table:  pantryTable,
		userID: item.UserID,
		body:   item,
		prefer: insertPrefer,
		insert: true,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to insert pantry item: %w", err)
	}
	return nil
}

// Delete removes the pantry row with id.
func (p *PantryStore) Delete(ctx context.Context, id string) error {
	err := p.client.do(ctx, request{
		method: http.MethodDelete,
		table:  pantryTable,
		query:  url.Values{"id": {eq(id)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}
