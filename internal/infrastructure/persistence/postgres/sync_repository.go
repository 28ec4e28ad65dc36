package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/sync"
)

// EntityStore adapts Store to sync.EntityRepository across both synced
// tables (contacts, organizations), dispatching on entityType the way the
// generic queue's handlers dispatch on job type.
type EntityStore struct {
	*Store
}

func NewEntityStore(s *Store) *EntityStore {
	return &EntityStore{Store: s}
}

func tableFor(entityType domain.EntityType) (string, error) {
	switch entityType {
	case domain.EntityTypeContact:
		return "contacts", nil
	case domain.EntityTypeOrganization:
		return "organizations", nil
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", domain.ErrInvalidArgument, entityType)
	}
}

func columnsFor(entityType domain.EntityType) string {
	if entityType == domain.EntityTypeContact {
		return entityColumnsContact
	}
	return entityColumnsOrg
}

func (s *EntityStore) Get(ctx context.Context, entityType domain.EntityType, id string) (*sync.Record, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `SELECT `+columnsFor(entityType)+` FROM `+table+` WHERE id = $1`, id)
	record, err := scanRecord(row, entityType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

func (s *EntityStore) FindByExternalID(ctx context.Context, entityType domain.EntityType, externalID string) (*sync.Record, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `SELECT `+columnsFor(entityType)+` FROM `+table+` WHERE external_id = $1`, externalID)
	record, err := scanRecord(row, entityType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

func (s *EntityStore) Create(ctx context.Context, entityType domain.EntityType, attrs map[string]any) (*sync.Record, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	switch entityType {
	case domain.EntityTypeContact:
		row = s.pool.QueryRow(ctx, `
			INSERT INTO `+table+` (name, email, phone)
			VALUES ($1, $2, $3)
			RETURNING `+entityColumnsContact,
			attrs["name"], attrs["email"], attrs["phone"])
	case domain.EntityTypeOrganization:
		row = s.pool.QueryRow(ctx, `
			INSERT INTO `+table+` (name, status)
			VALUES ($1, $2)
			RETURNING `+entityColumnsOrg,
			attrs["name"], attrs["status"])
	}
	return scanRecord(row, entityType)
}

func (s *EntityStore) Save(ctx context.Context, record *sync.Record) error {
	table, err := tableFor(record.EntityType)
	if err != nil {
		return err
	}

	switch record.EntityType {
	case domain.EntityTypeContact:
		_, err = s.pool.Exec(ctx, `
			UPDATE `+table+`
			SET name = $2, email = $3, phone = $4,
			    external_id = $5, external_last_synced_at = $6,
			    sync_status = $7, sync_direction = $8, sync_enabled = $9,
			    updated_since = $10, updated_at = now()
			WHERE id = $1`,
			record.ID, record.Attributes["name"], record.Attributes["email"], record.Attributes["phone"],
			record.ExternalID, record.ExternalLastSyncedAt, record.SyncStatus, record.SyncDirection,
			record.SyncEnabled, record.LocalModifiedAt)
	case domain.EntityTypeOrganization:
		_, err = s.pool.Exec(ctx, `
			UPDATE `+table+`
			SET name = $2, status = $3,
			    external_id = $4, external_last_synced_at = $5,
			    sync_status = $6, sync_direction = $7, sync_enabled = $8,
			    updated_since = $9, updated_at = now()
			WHERE id = $1`,
			record.ID, record.Attributes["name"], record.Attributes["status"],
			record.ExternalID, record.ExternalLastSyncedAt, record.SyncStatus, record.SyncDirection,
			record.SyncEnabled, record.LocalModifiedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s record: %w", record.EntityType, err)
	}
	return nil
}

func (s *EntityStore) Unlink(ctx context.Context, entityType domain.EntityType, id string) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE `+table+`
		SET external_id = NULL, external_last_synced_at = NULL, sync_status = 'PENDING', updated_at = now()
		WHERE id = $1`, id)
	return err
}

const entityColumnsContact = `id, name, email, phone, external_id, external_last_synced_at,
	sync_status, sync_direction, sync_enabled, updated_since, updated_at`
const entityColumnsOrg = `id, name, status, external_id, external_last_synced_at,
	sync_status, sync_direction, sync_enabled, updated_since, updated_at`

func scanRecord(row pgx.Row, entityType domain.EntityType) (*sync.Record, error) {
	var id string
	var externalID *string
	var externalLastSyncedAt *time.Time
	var syncStatus domain.SyncStatus
	var syncDirection domain.SyncDirection
	var syncEnabled bool
	var updatedSince *time.Time
	var updatedAt time.Time

	attrs := map[string]any{}

	switch entityType {
	case domain.EntityTypeContact:
		var name, email string
		var phone *string
		if err := row.Scan(&id, &name, &email, &phone, &externalID, &externalLastSyncedAt,
			&syncStatus, &syncDirection, &syncEnabled, &updatedSince, &updatedAt); err != nil {
			return nil, err
		}
		attrs["name"], attrs["email"] = name, email
		if phone != nil {
			attrs["phone"] = *phone
		}
	case domain.EntityTypeOrganization:
		var name string
		var status *string
		if err := row.Scan(&id, &name, &status, &externalID, &externalLastSyncedAt,
			&syncStatus, &syncDirection, &syncEnabled, &updatedSince, &updatedAt); err != nil {
			return nil, err
		}
		attrs["name"] = name
		if status != nil {
			attrs["status"] = *status
		}
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", domain.ErrInvalidArgument, entityType)
	}

	localModifiedAt := updatedAt
	if updatedSince != nil {
		localModifiedAt = *updatedSince
	}

	return &sync.Record{
		ID:              id,
		EntityType:      entityType,
		Attributes:      attrs,
		LocalModifiedAt: localModifiedAt,
		SyncFields: domain.SyncFields{
			ExternalID:           externalID,
			ExternalLastSyncedAt: externalLastSyncedAt,
			SyncStatus:           syncStatus,
			SyncDirection:        syncDirection,
			SyncEnabled:          syncEnabled,
		},
	}, nil
}

// ConflictStore adapts Store to sync.ConflictRepository.
type ConflictStore struct {
	*Store
}

func NewConflictStore(s *Store) *ConflictStore {
	return &ConflictStore{Store: s}
}

func (s *ConflictStore) Create(ctx context.Context, conflict *domain.SyncConflict) (*domain.SyncConflict, error) {
	npdData, err := marshalNullable(conflict.NPDData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal npd_data: %w", err)
	}
	externalData, err := marshalNullable(conflict.ExternalData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal external_data: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO sync_conflicts (entity_type, entity_id, npd_data, external_data, conflict_fields)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+conflictColumns,
		conflict.EntityType, conflict.EntityID, npdData, externalData, conflict.ConflictFields)
	return scanConflict(row)
}

func (s *ConflictStore) Get(ctx context.Context, id string) (*domain.SyncConflict, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+conflictColumns+` FROM sync_conflicts WHERE id = $1`, id)
	conflict, err := scanConflict(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return conflict, err
}

func (s *ConflictStore) Save(ctx context.Context, conflict *domain.SyncConflict) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sync_conflicts
		SET resolved_at = $2, resolution_type = $3, resolved_by_id = $4
		WHERE id = $1`,
		conflict.ID, conflict.ResolvedAt, conflict.ResolutionType, conflict.ResolvedByID)
	return err
}

const conflictColumns = `id, entity_type, entity_id, npd_data, external_data, conflict_fields,
	detected_at, resolved_at, resolution_type, resolved_by_id`

func scanConflict(row pgx.Row) (*domain.SyncConflict, error) {
	var c domain.SyncConflict
	var npdData, externalData []byte
	if err := row.Scan(&c.ID, &c.EntityType, &c.EntityID, &npdData, &externalData, &c.ConflictFields,
		&c.DetectedAt, &c.ResolvedAt, &c.ResolutionType, &c.ResolvedByID); err != nil {
		return nil, err
	}
	var err error
	if c.NPDData, err = unmarshalNullable(npdData); err != nil {
		return nil, err
	}
	if c.ExternalData, err = unmarshalNullable(externalData); err != nil {
		return nil, err
	}
	return &c, nil
}

// RuleStore adapts Store to sync.RuleRepository.
type RuleStore struct {
	*Store
}

func NewRuleStore(s *Store) *RuleStore {
	return &RuleStore{Store: s}
}

func (s *RuleStore) ListEnabled(ctx context.Context, entityType domain.EntityType) ([]domain.AutoResolutionRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, entity_type, field_name, preferred_source, is_enabled, priority, created_by_id
		FROM auto_resolution_rules
		WHERE entity_type = $1 AND is_enabled = true
		ORDER BY priority ASC`, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto resolution rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.AutoResolutionRule
	for rows.Next() {
		var r domain.AutoResolutionRule
		if err := rows.Scan(&r.ID, &r.Name, &r.EntityType, &r.FieldName, &r.PreferredSource,
			&r.IsEnabled, &r.Priority, &r.CreatedByID); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
