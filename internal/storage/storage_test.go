package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
)

func TestFileStore(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewFileStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()

	rice := shopping.Item{ID: "a", UserID: "user@example.com", Name: "rice", Quantity: recipe.Float(200), Unit: "g", CreatedAt: now}

	t.Run("ListEmpty", func(t *testing.T) {
		items, err := store.List(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", items)
		}
	})

	t.Run("Insert", func(t *testing.T) {
		if err := store.Insert(ctx, rice); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		filePath := filepath.Join(tempDir, "user_example.com.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
		if err := store.Insert(ctx, rice); err == nil {
			t.Error("expected duplicate insert to fail")
		}
	})

	t.Run("Update", func(t *testing.T) {
		rice.Checked = true
		if err := store.Update(ctx, rice); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		items, _ := store.List(ctx, rice.UserID)
		if len(items) != 1 || !items[0].Checked || *items[0].Quantity != 200 {
			t.Errorf("unexpected items after update: %+v", items)
		}

		err := store.Update(ctx, shopping.Item{ID: "missing", UserID: rice.UserID})
		if !errors.Is(err, shopping.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		items, _ := store.List(ctx, rice.UserID)
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
		if err := store.Delete(ctx, "a"); err != nil {
			t.Errorf("deleting a missing item should not fail, got %v", err)
		}
	})
}

func TestFileStoreConcurrentInserts(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it := shopping.Item{ID: fmt.Sprintf("id-%d", i), UserID: "u1", Name: fmt.Sprintf("item %d", i)}
			if err := store.Insert(ctx, it); err != nil {
				t.Errorf("Insert %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	items, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 20 {
		t.Errorf("expected 20 items, got %d", len(items))
	}
}
