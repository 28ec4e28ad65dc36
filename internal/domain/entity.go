package domain

import "time"

// SyncStatus is the outbound sync state of a local entity.
// Stored as the uppercase symbol name.
type SyncStatus string

const (
	SyncStatusSynced SyncStatus = "SYNCED"
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusConflict SyncStatus = "CONFLICT"
	SyncStatusDisabled SyncStatus = "DISABLED"
)

// SyncDirection controls which way(s) an entity participates in sync.
type SyncDirection string

const (
	SyncDirectionBidirectional SyncDirection = "BIDIRECTIONAL"
	SyncDirectionNPDToExternal SyncDirection = "NPD_TO_EXT"
	SyncDirectionExternalToNPD SyncDirection = "EXT_TO_NPD"
	SyncDirectionNone SyncDirection = "NONE"
)

// EntityType names the two synced local record kinds.
type EntityType string

const (
	EntityTypeContact EntityType = "contact"
	EntityTypeOrganization EntityType = "organization"
)

// SyncFields are the attributes every synced entity carries, embedded into
// Contact and Organization. It is not a table of its own.
type SyncFields struct {
	ExternalID *string
	ExternalLastSyncedAt *time.Time
	SyncStatus SyncStatus
	SyncDirection SyncDirection
	SyncEnabled bool
}

// CanSyncOutbound reports whether egress should run for this entity (
// gating, minus the integration/board configuration checks which are
// evaluated by the caller).
func (f SyncFields) CanSyncOutbound() bool {
	if !f.SyncEnabled {
 return false
	}
	switch f.SyncDirection {
	case SyncDirectionExternalToNPD, SyncDirectionNone:
 return false
	default:
 return true
	}
}

// Contact is a local record synced bidirectionally with the external board.
type Contact struct {
	ID string
	Name string
	Email string
	Phone *string

	UpdatedAt time.Time
	UpdatedSince *time.Time // last local modification not yet reflected externally

	SyncFields
}

// Organization is a local record synced bidirectionally with the external board.
type Organization struct {
	ID string
	Name string
	Status *string

	UpdatedAt time.Time
	UpdatedSince *time.Time

	SyncFields
}
