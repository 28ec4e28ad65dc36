package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/novuscrm/syncwork/internal/board"
	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/queue"
)

// EgressConfig gates whether egress runs at all.
type EgressConfig struct {
	IntegrationConfigured bool
	// BoardIDs maps an entity type to its target board id; an absent or
	// empty entry means "target board id not configured" for that type.
	BoardIDs map[domain.EntityType]string
}

func (c EgressConfig) boardIDFor(entityType domain.EntityType) string {
	return c.BoardIDs[entityType]
}

// EgressService pushes local entity state to the external board.
type EgressService struct {
	entities EntityRepository
	board board.Client
	jobs *queue.Service
	config EgressConfig
}

// NewEgressService builds an EgressService.
func NewEgressService(entities EntityRepository, client board.Client, jobs *queue.Service, config EgressConfig) *EgressService {
	return &EgressService{entities: entities, board: client, jobs: jobs, config: config}
}

// Push attempts to sync one entity outbound. It never returns an error to
// the caller — failures
// are absorbed into a PENDING status and a retry-queue enqueue.
func (s *EgressService) Push(ctx context.Context, entityType domain.EntityType, entityID string) {
	record, err:= s.entities.Get(ctx, entityType, entityID)
	if err != nil {
 slog.ErrorContext(ctx, "egress: failed to load entity", "entity_type", entityType, "entity_id", entityID, "error", err)
 return
	}

	if !s.gate(record) {
 return
	}

	columnValues:= buildColumnValues(entityType, record)
	boardID:= s.config.boardIDFor(entityType)

	var pushErr error
	if record.ExternalID == nil {
 item, createErr:= s.board.CreateItem(ctx, boardID, name(record), columnValues, "")
 if createErr == nil {
 record.ExternalID = &item.ID
 }
 pushErr = createErr
	} else {
 pushErr = s.board.UpdateItem(ctx, boardID, *record.ExternalID, columnValues)
	}

	if pushErr != nil {
 s.handleFailure(ctx, entityType, entityID, record, pushErr)
 return
	}

	now:= time.Now().UTC()
	record.SyncStatus = domain.SyncStatusSynced
	record.ExternalLastSyncedAt = &now
	if err:= s.entities.Save(ctx, record); err != nil {
 slog.ErrorContext(ctx, "egress: failed to persist synced status", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

// gate reports whether egress may push this record; false means Push skips
// it entirely.
func (s *EgressService) gate(record *Record) bool {
	if !s.config.IntegrationConfigured {
 return false
	}
	if s.config.boardIDFor(record.EntityType) == "" {
 return false
	}
	return record.CanSyncOutbound()
}

func (s *EgressService) handleFailure(ctx context.Context, entityType domain.EntityType, entityID string, record *Record, pushErr error) {
	slog.WarnContext(ctx, "egress push failed, marking pending and enqueueing retry",
 "entity_type", entityType, "entity_id", entityID, "error", pushErr)

	et:= string(entityType)
	if _, err:= s.jobs.Enqueue(ctx, domain.EnqueueParams{
 JobType: domain.JobTypeSyncEgressRetry,
 EntityType: &et,
 EntityID: &entityID,
	}); err != nil {
 slog.ErrorContext(ctx, "egress: failed to enqueue retry job", "entity_type", entityType, "entity_id", entityID, "error", err)
	}

	record.SyncStatus = domain.SyncStatusPending
	if err:= s.entities.Save(ctx, record); err != nil {
 slog.ErrorContext(ctx, "egress: failed to persist pending status", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

func name(record *Record) string {
	if n, ok:= record.Attributes["name"].(string); ok {
 return n
	}
	return ""
}

func buildColumnValues(entityType domain.EntityType, record *Record) board.ColumnValues {
	switch entityType {
	case domain.EntityTypeContact:
 return board.BuildContactColumnValues(toContact(record))
	case domain.EntityTypeOrganization:
 return board.BuildOrganizationColumnValues(toOrganization(record))
	default:
 return board.ColumnValues{}
	}
}

func toContact(record *Record) *domain.Contact {
	c:= &domain.Contact{ID: record.ID, SyncFields: record.SyncFields}
	if v, ok:= record.Attributes["name"].(string); ok {
 c.Name = v
	}
	if v, ok:= record.Attributes["email"].(string); ok {
 c.Email = v
	}
	if v, ok:= record.Attributes["phone"].(string); ok {
 c.Phone = &v
	}
	return c
}

func toOrganization(record *Record) *domain.Organization {
	o:= &domain.Organization{ID: record.ID, SyncFields: record.SyncFields}
	if v, ok:= record.Attributes["name"].(string); ok {
 o.Name = v
	}
	if v, ok:= record.Attributes["status"].(string); ok {
 o.Status = &v
	}
	return o
}
