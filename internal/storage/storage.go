// Package storage defines the storage-adapter external collaborator:
// raw byte read/save/delete/exists against document files, independent of
// backend. Two implementations live in the fs and gcs subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read when no object is stored under the given
// id (Exists reports a missing id as false with a nil error). Implementations must make this distinguishable (via
// errors.Is) from transport failures, since the document-processing
// pipeline treats a missing file as a permanent task failure and anything
// else as retryable.
var ErrNotExist = errors.New("object does not exist in storage")

// Adapter is the storage contract document tasks depend on.
type Adapter interface {
	// Read returns the raw bytes stored under id, or ErrNotExist.
	Read(ctx context.Context, id string) ([]byte, error)

	// Save stores data under a new id and returns that id. The gcs adapter
	// prefixes the id with projectID; the fs adapter does not use it.
	// Neither adapter uses filename.
	Save(ctx context.Context, data []byte, filename, projectID string) (id string, err error)

	// Delete removes the object. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Exists reports whether an object is stored under id.
	Exists(ctx context.Context, id string) (bool, error)
}
