// Package fs is a filesystem-backed implementation of storage.Adapter, for
// local development and single-node deployments.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/storage"
)

// Store is a filesystem-based implementation of storage.Adapter.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a filesystem store rooted at baseDir, creating it if
// necessary.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, id)
}

// Read returns the bytes stored under id.
func (s *Store) Read(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}
	return data, nil
}

// Save writes data under a freshly generated id and returns it. filename
// and projectID are not part of the on-disk layout; they exist so callers
// can build a display name or a GCS-style prefixed key in other adapters.
func (s *Store) Save(_ context.Context, data []byte, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if err := os.WriteFile(s.path(id), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", id, err)
	}
	return id, nil
}

// Delete removes the object. A missing file is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", id, err)
	}
	return nil
}

// Exists reports whether id is present.
func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", id, err)
}
