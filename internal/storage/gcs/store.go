// Package gcs is a Google Cloud Storage-backed implementation of
// storage.Adapter, for production deployments.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcsstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/storage"
)

// Store is a GCS-based implementation of storage.Adapter.
type Store struct {
	client *gcsstorage.Client
	bucket string
}

// NewStore creates a GCS store. It assumes the client is authenticated
// (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	client, err := gcsstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &Store{client: client, bucket: bucketName}, nil
}

// Read returns the object's bytes.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	obj := s.client.Bucket(s.bucket).Object(id)

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcsstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("failed to open object %s: %w", id, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", id, err)
	}
	return data, nil
}

// Save writes data under a freshly generated id scoped to projectID, and
// returns that id.
func (s *Store) Save(ctx context.Context, data []byte, _, projectID string) (string, error) {
	id := fmt.Sprintf("%s/%s", projectID, uuid.NewString())
	obj := s.client.Bucket(s.bucket).Object(id)

	w := obj.NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", id, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", id, err)
	}
	return id, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	obj := s.client.Bucket(s.bucket).Object(id)
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", id, err)
	}
	return nil
}

// Exists reports whether id is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	obj := s.client.Bucket(s.bucket).Object(id)
	_, err := obj.Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", id, err)
}
