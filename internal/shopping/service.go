package shopping

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pantry-planner/internal/logging"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/recipe"
)

// PantrySource lists a user's pantry. pantry.Repository, the Postgres store
// and the REST client all satisfy it.
type PantrySource interface {
	List(ctx context.Context, userID string) ([]pantry.Item, error)
}

// Service hands out one List per user over a shared Store and reconciles
// incoming ingredients against the user's pantry.
type Service struct {
	store  Store
	pantry PantrySource
	logger *slog.Logger

	mu    sync.Mutex
	lists map[string]*List
}

// NewService creates a Service. pantry may be nil, in which case nothing is
// subtracted from incoming requests.
func NewService(store Store, pantry PantrySource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		pantry: pantry,
		logger: logger,
		lists:  make(map[string]*List),
	}
}

// List returns the user's list synced with the store. The same *List is
// handed out for a user, so concurrent callers share its lock; each call
// rereads the store, which picks up rows written by other clients and
// discards local state left behind by a failed write.
func (s *Service) List(ctx context.Context, userID string) (*List, error) {
	s.mu.Lock()
	l, ok := s.lists[userID]
	s.mu.Unlock()
	if ok {
		if err := l.Reload(ctx); err != nil {
			return nil, err
		}
		return l, nil
	}

	l, err := Load(ctx, s.store, userID, s.logger)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.lists[userID]; ok {
		return cached, nil
	}
	s.lists[userID] = l
	return l, nil
}

// Forget drops the cached list so the next call reloads it from the store.
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	delete(s.lists, userID)
	s.mu.Unlock()
}

// Stock returns the user's pantry, or nothing when no source is configured.
func (s *Service) Stock(ctx context.Context, userID string) ([]pantry.Item, error) {
	if s.pantry == nil {
		return nil, nil
	}
	stock, err := s.pantry.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}
	return stock, nil
}

// AddIngredients reconciles ingredients against the pantry and merges them
// into the user's list.
func (s *Service) AddIngredients(ctx context.Context, userID string, ingredients []recipe.Ingredient, origin string) (MergeResult, error) {
	l, err := s.List(ctx, userID)
	if err != nil {
		return MergeResult{}, err
	}
	stock, err := s.Stock(ctx, userID)
	if err != nil {
		return MergeResult{}, err
	}
	return l.AddIngredients(ctx, ingredients, origin, stock)
}

// AddRecipes reconciles several recipes in one pass.
func (s *Service) AddRecipes(ctx context.Context, userID string, recipes ...recipe.Recipe) (MergeResult, error) {
	l, err := s.List(ctx, userID)
	if err != nil {
		return MergeResult{}, err
	}
	stock, err := s.Stock(ctx, userID)
	if err != nil {
		return MergeResult{}, err
	}
	return l.AddRecipes(ctx, recipes, stock)
}
