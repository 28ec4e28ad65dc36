// Package sync implements the bidirectional reconciler against the
// external board: egress, webhook ingress, and conflict
// detection/resolution with rule-based auto-resolution.
package sync

import (
	"context"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Record is a generic snapshot of a synced entity (Contact or
// Organization): the attribute map lets conflict resolution and column
// building operate over either entity type without a type switch at every
// call site, while SyncFields carries the sync-lifecycle state every
// synced entity has in common.
type Record struct {
	ID string
	EntityType domain.EntityType
	Attributes map[string]any // e.g. {"name":..., "email":..., "phone":...}
	LocalModifiedAt time.Time

	domain.SyncFields
}

// EntityRepository is the storage contract for synced local records.
type EntityRepository interface {
	Get(ctx context.Context, entityType domain.EntityType, id string) (*Record, error)
	FindByExternalID(ctx context.Context, entityType domain.EntityType, externalID string) (*Record, error)
	Create(ctx context.Context, entityType domain.EntityType, attrs map[string]any) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Unlink(ctx context.Context, entityType domain.EntityType, id string) error
}

// ConflictRepository is the storage contract for SyncConflict rows.
type ConflictRepository interface {
	Create(ctx context.Context, conflict *domain.SyncConflict) (*domain.SyncConflict, error)
	Get(ctx context.Context, id string) (*domain.SyncConflict, error)
	Save(ctx context.Context, conflict *domain.SyncConflict) error
}

// RuleRepository is the storage contract for AutoResolutionRule rows.
type RuleRepository interface {
	// ListEnabled returns enabled rules for entityType ordered by
	// ascending priority (lower wins).
	ListEnabled(ctx context.Context, entityType domain.EntityType) ([]domain.AutoResolutionRule, error)
}
