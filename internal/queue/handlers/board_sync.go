package handlers

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/board"
	"github.com/novuscrm/syncwork/internal/domain"
)

// BoardUpserter applies one board item's attributes to the local store, the
// same "create" semantics webhook ingress uses. Implemented by
// sync.IngressService.UpsertFromBoardItem.
type BoardUpserter interface {
	UpsertFromBoardItem(ctx context.Context, entityType domain.EntityType, itemID string, attributes map[string]any) (string, error)
}

// BoardSyncHandler walks a board's items via cursored pagination and
// upserts local records.
type BoardSyncHandler struct {
	client board.Client
	upserter BoardUpserter
	entityType domain.EntityType
	boardIDKey string // payload key carrying the target board id
}

// NewBoardSyncHandler builds a BoardSyncHandler for one entity type, reading
// the target board id from job.Payload[boardIDKey].
func NewBoardSyncHandler(client board.Client, upserter BoardUpserter, entityType domain.EntityType, boardIDKey string) *BoardSyncHandler {
	return &BoardSyncHandler{client: client, upserter: upserter, entityType: entityType, boardIDKey: boardIDKey}
}

// Handle pages through every item on the configured board and upserts it.
func (h *BoardSyncHandler) Handle(ctx context.Context, job *domain.Job) (map[string]any, error) {
	boardID, _:= job.Payload[h.boardIDKey].(string)
	if boardID == "" {
 return nil, fmt.Errorf("%w: job payload missing %q", domain.ErrInvalidArgument, h.boardIDKey)
	}

	cursor:= ""
	processed:= 0
	for {
 items, nextCursor, err:= h.client.GetBoardItems(ctx, boardID, cursor)
 if err != nil {
 return nil, fmt.Errorf("failed to fetch board items: %w", err)
 }

 for _, item:= range items {
 if _, err:= h.upserter.UpsertFromBoardItem(ctx, h.entityType, item.ID, item.Values); err != nil {
 return nil, fmt.Errorf("failed to upsert board item %s: %w", item.ID, err)
 }
 processed++
 }

 if nextCursor == "" {
 break
 }
 cursor = nextCursor
	}

	return map[string]any{"items_processed": processed}, nil
}
