package sync

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// MaxWebhookBodyBytes is the payload-size cap enforced before the body is
// read (step 1).
const MaxWebhookBodyBytes = 1 << 20 // 1 MiB

// ErrPayloadTooLarge is returned when Content-Length declares a body larger
// than MaxWebhookBodyBytes, without reading the body.
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrInvalidSignature is returned when a webhook's signed token fails
// verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// BoardType names which local collection a webhook event targets.
type BoardType string

const (
	BoardTypeContacts BoardType = "contacts"
	BoardTypeOrganizations BoardType = "organizations"
	BoardTypeUnknown BoardType = "unknown"
)

// eventPayload is the shape of a create/update/delete webhook event.
type eventPayload struct {
	Challenge *string `json:"challenge"`
	Signature string `json:"signature"`
	EventType string `json:"event_type"`
	Board string `json:"board"`
	ItemID string `json:"item_id"`
	Attributes map[string]any `json:"attributes"`
}

// IngressResult is the structured outcome of handling one webhook event.
type IngressResult struct {
	Status string `json:"status"`
	EventType string `json:"event_type"`
	BoardType string `json:"board_type"`
	SyncResult string `json:"sync_result"`
}

// IngressService applies board-originated webhook events to local records.
type IngressService struct {
	entities EntityRepository
	conflicts *Service
	signingSecret string
	boardTypeOf func(boardID string) BoardType
}

// NewIngressService builds an IngressService. signingSecret may be empty,
// in which case signature verification is skipped with a logged warning.
// boardTypeOf maps a payload's board identifier to BoardTypeContacts,
// BoardTypeOrganizations, or BoardTypeUnknown.
func NewIngressService(entities EntityRepository, conflicts *Service, signingSecret string, boardTypeOf func(string) BoardType) *IngressService {
	return &IngressService{entities: entities, conflicts: conflicts, signingSecret: signingSecret, boardTypeOf: boardTypeOf}
}

// ReadBody enforces step 1: reject on a declared Content-Length over
// the cap without reading the body, then cap the actual read too.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.ContentLength > MaxWebhookBodyBytes {
 return nil, ErrPayloadTooLarge
	}
	limited:= io.LimitReader(r.Body, MaxWebhookBodyBytes+1)
	body, err:= io.ReadAll(limited)
	if err != nil {
 return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxWebhookBodyBytes {
 return nil, ErrPayloadTooLarge
	}
	return body, nil
}

// HandleWebhook parses and dispatches one webhook delivery. A challenge
// payload is echoed verbatim and bypasses signature verification — the
// only authentication bypass (step 2).
func (s *IngressService) HandleWebhook(ctx context.Context, body []byte) (challengeResponse map[string]string, result *IngressResult, err error) {
	var event eventPayload
	if err:= json.Unmarshal(body, &event); err != nil {
 return nil, nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if event.Challenge != nil {
 return map[string]string{"challenge": *event.Challenge}, nil, nil
	}

	if err:= s.verifySignature(body, event.Signature); err != nil {
 return nil, nil, err
	}

	boardType:= s.boardTypeOf(event.Board)
	syncResult, err:= s.dispatch(ctx, boardType, event)
	if err != nil {
 return nil, nil, err
	}

	return nil, &IngressResult{
 Status: "ok",
 EventType: event.EventType,
 BoardType: string(boardType),
 SyncResult: syncResult,
	}, nil
}

// verifySignature checks a hash-based shared-secret signature over body. If
// no secret is configured it logs a warning and proceeds (step 3).
func (s *IngressService) verifySignature(body []byte, signature string) error {
	if s.signingSecret == "" {
 slog.Warn("webhook signing secret not configured, skipping signature verification")
 return nil
	}
	mac:= hmac.New(sha256.New, []byte(s.signingSecret))
	mac.Write(body)
	expected:= hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
 return ErrInvalidSignature
	}
	return nil
}

func (s *IngressService) dispatch(ctx context.Context, boardType BoardType, event eventPayload) (string, error) {
	entityType, ok:= entityTypeFor(boardType)
	if !ok {
 slog.WarnContext(ctx, "webhook event for unknown board type, ignoring", "board", event.Board)
 return "ignored_unknown_board", nil
	}

	switch event.EventType {
	case "create":
 return s.handleCreate(ctx, entityType, event)
	case "update":
 return s.handleUpdate(ctx, entityType, event)
	case "delete":
 return s.handleDelete(ctx, entityType, event)
	default:
 return "", fmt.Errorf("%w: unrecognized event_type %q", domain.ErrInvalidArgument, event.EventType)
	}
}

func entityTypeFor(boardType BoardType) (domain.EntityType, bool) {
	switch boardType {
	case BoardTypeContacts:
 return domain.EntityTypeContact, true
	case BoardTypeOrganizations:
 return domain.EntityTypeOrganization, true
	default:
 return "", false
	}
}

// UpsertFromBoardItem applies the "create" upsert semantics to one
// item fetched directly from the board (e.g. a cursored board-sync walk,
// rather than a webhook delivery).
func (s *IngressService) UpsertFromBoardItem(ctx context.Context, entityType domain.EntityType, itemID string, attributes map[string]any) (string, error) {
	return s.handleCreate(ctx, entityType, eventPayload{ItemID: itemID, Attributes: attributes})
}

// handleCreate upserts by board item id; contacts without an email are
// skipped (step 5 "create").
func (s *IngressService) handleCreate(ctx context.Context, entityType domain.EntityType, event eventPayload) (string, error) {
	existing, err:= s.entities.FindByExternalID(ctx, entityType, event.ItemID)
	if err == nil {
 return s.applyUpdate(ctx, existing, event.Attributes)
	}
	if !errors.Is(err, domain.ErrNotFound) {
 return "", err
	}

	if entityType == domain.EntityTypeContact {
 if email, ok:= event.Attributes["email"]; !ok || email == "" {
 slog.WarnContext(ctx, "contact webhook create missing email, skipping", "item_id", event.ItemID)
 return "skipped_missing_email", nil
 }
	}

	attrs:= make(map[string]any, len(event.Attributes))
	for field, value:= range event.Attributes {
 attrs[field] = unwrapValue(field, value)
	}

	record, err:= s.entities.Create(ctx, entityType, attrs)
	if err != nil {
 return "", fmt.Errorf("failed to create local record: %w", err)
	}

	itemID:= event.ItemID
	record.ExternalID = &itemID
	now:= time.Now().UTC()
	record.ExternalLastSyncedAt = &now
	record.SyncStatus = domain.SyncStatusSynced
	if err:= s.entities.Save(ctx, record); err != nil {
 return "", fmt.Errorf("failed to link created record: %w", err)
	}
	return "created", nil
}

// handleUpdate opens a conflict if the local record changed since its last
// sync, otherwise applies the change and marks SYNCED (step 5 "update").
func (s *IngressService) handleUpdate(ctx context.Context, entityType domain.EntityType, event eventPayload) (string, error) {
	record, err:= s.entities.FindByExternalID(ctx, entityType, event.ItemID)
	if err != nil {
 if errors.Is(err, domain.ErrNotFound) {
 return s.handleCreate(ctx, entityType, event)
 }
 return "", err
	}
	return s.applyUpdate(ctx, record, event.Attributes)
}

func (s *IngressService) applyUpdate(ctx context.Context, record *Record, externalData map[string]any) (string, error) {
	if record.ExternalLastSyncedAt != nil && record.LocalModifiedAt.After(*record.ExternalLastSyncedAt) {
 fields:= changedFields(record.Attributes, externalData)
 if len(fields) == 0 {
 return "no_change", nil
 }
 conflict, err:= s.conflicts.Detect(ctx, record, externalData, fields)
 if err != nil {
 return "", fmt.Errorf("failed to detect conflict: %w", err)
 }
 if conflict == nil {
 return "auto_resolved", nil
 }

 record.SyncStatus = domain.SyncStatusConflict
 if err:= s.entities.Save(ctx, record); err != nil {
 return "", fmt.Errorf("failed to persist conflict status: %w", err)
 }
 return "conflict", nil
	}

	for field, value:= range externalData {
 if !isResolvable(record.EntityType, field) {
 continue
 }
 record.Attributes[field] = unwrapValue(field, value)
	}
	now:= time.Now().UTC()
	record.ExternalLastSyncedAt = &now
	record.SyncStatus = domain.SyncStatusSynced
	if err:= s.entities.Save(ctx, record); err != nil {
 return "", fmt.Errorf("failed to persist updated record: %w", err)
	}
	return "updated", nil
}

// handleDelete unlinks the local record from the board without deleting it
// (step 5 "delete").
func (s *IngressService) handleDelete(ctx context.Context, entityType domain.EntityType, event eventPayload) (string, error) {
	record, err:= s.entities.FindByExternalID(ctx, entityType, event.ItemID)
	if err != nil {
 if errors.Is(err, domain.ErrNotFound) {
 return "ignored_not_found", nil
 }
 return "", err
	}
	if err:= s.entities.Unlink(ctx, entityType, record.ID); err != nil {
 return "", fmt.Errorf("failed to unlink record: %w", err)
	}
	return "unlinked", nil
}

func changedFields(npdData, externalData map[string]any) []string {
	fields:= make([]string, 0, len(externalData))
	for field, externalValue:= range externalData {
 if npdData[field] != unwrapValue(field, externalValue) {
 fields = append(fields, field)
 }
	}
	return fields
}
