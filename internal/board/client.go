// Package board defines the external-board client collaborator and
// its column-value projection: the only concrete outbound transport
// this system depends on.
package board

import (
	"context"
	"errors"
)

// Error kinds an external-board call may raise. Implementations should
// wrap one of these so callers can classify via errors.Is — the sync
// egress path treats ErrRateLimit/transport errors as retryable and
// everything else as permanent.
var (
	ErrRateLimit = errors.New("external board rate limit exceeded")
	ErrAuth = errors.New("external board authentication failed")
	ErrNotFound = errors.New("external board item not found")
	ErrAPI = errors.New("external board API error")
)

// Item is the minimal shape returned by createItem/updateItem and the
// listing/search operations.
type Item struct {
	ID string
	Name string
	Values map[string]any
}

// ColumnValues is the typed projection built by BuildColumnValues.
type ColumnValues map[string]any

// Client is the external-board transport contract. Implementations
// own their own retry/backoff/jitter policy and must not leak
// provider-specific error types past the sentinel errors above.
type Client interface {
	CreateItem(ctx context.Context, board, name string, columnValues ColumnValues, group string) (*Item, error)
	UpdateItem(ctx context.Context, board, itemID string, columnValues ColumnValues) error
	DeleteItem(ctx context.Context, itemID string) error
	GetBoardItems(ctx context.Context, board, cursor string) (items []*Item, nextCursor string, err error)
	SearchContacts(ctx context.Context, board, query string, columns []string, limit int) (items []*Item, cursor string, hasMore bool, err error)
}
