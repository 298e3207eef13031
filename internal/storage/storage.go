package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"

	"pantry-planner/internal/shopping"
)

const lockRetryDelay = 50 * time.Millisecond

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStore keeps each user's shopping list in a JSON file. Writes take an
// exclusive file lock so concurrent CLI invocations do not lose updates.
type FileStore struct {
	basePath string
}

var _ shopping.Store = (*FileStore)(nil)

// NewFileStore creates a FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

type listFile struct {
	UserID    string          `json:"user_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Items     []shopping.Item `json:"items"`
}

func (s *FileStore) listPath(userID string) string {
	name := unsafeFileChars.ReplaceAllString(userID, "_")
	if name == "" {
		name = "_"
	}
	return filepath.Join(s.basePath, name+".json")
}

// List returns the items stored for userID.
func (s *FileStore) List(ctx context.Context, userID string) ([]shopping.Item, error) {
	var items []shopping.Item
	err := s.withLock(ctx, s.listPath(userID), false, func(path string) error {
		f, err := readList(path)
		if err != nil {
			return err
		}
		items = f.Items
		return nil
	})
	if items == nil {
		items = []shopping.Item{}
	}
	return items, err
}

// Insert appends a new item to its owner's file.
func (s *FileStore) Insert(ctx context.Context, item shopping.Item) error {
	return s.modify(ctx, item.UserID, func(f *listFile) error {
		for _, it := range f.Items {
			if it.ID == item.ID {
				return fmt.Errorf("shopping item %s already exists", item.ID)
			}
		}
		f.Items = append(f.Items, item)
		return nil
	})
}

// Update replaces an existing item in its owner's file.
func (s *FileStore) Update(ctx context.Context, item shopping.Item) error {
	return s.modify(ctx, item.UserID, func(f *listFile) error {
		for i, it := range f.Items {
			if it.ID == item.ID {
				f.Items[i] = item
				return nil
			}
		}
		return fmt.Errorf("failed to update shopping item %s: %w", item.ID, shopping.ErrNotFound)
	})
}

// Delete removes an item from whichever user file holds it.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to glob list files: %w", err)
	}
	for _, path := range matches {
		removed := false
		err := s.withLock(ctx, path, true, func(path string) error {
			f, err := readList(path)
			if err != nil {
				return err
			}
			for i, it := range f.Items {
				if it.ID == id {
					f.Items = append(f.Items[:i], f.Items[i+1:]...)
					removed = true
					return writeList(path, f)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
	}
	return nil
}

func (s *FileStore) modify(ctx context.Context, userID string, fn func(*listFile) error) error {
	return s.withLock(ctx, s.listPath(userID), true, func(path string) error {
		f, err := readList(path)
		if err != nil {
			return err
		}
		f.UserID = userID
		if err := fn(f); err != nil {
			return err
		}
		return writeList(path, f)
	})
}

func (s *FileStore) withLock(ctx context.Context, path string, exclusive bool, fn func(string) error) error {
	lock := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", path)
	}
	defer lock.Unlock()
	return fn(path)
}

func readList(path string) (*listFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &listFile{}, nil
		}
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	var f listFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list file %s: %w", path, err)
	}
	return &f, nil
}

// writeList replaces the file atomically via a temp file and rename.
func writeList(path string, f *listFile) error {
	f.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal list file: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write list file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace list file: %w", err)
	}
	return nil
}
