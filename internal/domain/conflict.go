package domain

import "time"

// ResolutionType is how a SyncConflict was (or will be) resolved.
type ResolutionType string

const (
	ResolutionKeepLocal ResolutionType = "keep_local"
	ResolutionKeepExternal ResolutionType = "keep_external"
	ResolutionMerge ResolutionType = "merge"
)

// SyncConflict records a detected divergence between the local store and the
// external board, awaiting resolution.
type SyncConflict struct {
	ID string
	EntityType EntityType
	EntityID string

	NPDData map[string]any
	ExternalData map[string]any
	ConflictFields []string

	DetectedAt time.Time
	ResolvedAt *time.Time
	ResolutionType *ResolutionType
	ResolvedByID *string
}

// IsResolved reports whether the conflict has been resolved, per the
// invariant resolved_at != nil <=> resolution_type != nil.
func (c *SyncConflict) IsResolved() bool {
	return c.ResolvedAt != nil
}

// ResolveParams is the input to resolving a single conflict.
type ResolveParams struct {
	ConflictID string
	ResolutionType ResolutionType
	MergeSelections map[string]string // field -> "local" | "external", required for merge
	ResolvedByID *string
}

// BulkResolveParams resolves many conflicts with one resolution type.
// Merge is rejected at this layer because it requires per-conflict
// selections.
type BulkResolveParams struct {
	ConflictIDs []string
	ResolutionType ResolutionType
	ResolvedByID *string
}

// BulkResolveResult aggregates per-conflict outcomes.
type BulkResolveResult struct {
	Total int
	Succeeded int
	Failed int
	Results []BulkResolveItem
}

// BulkResolveItem is one conflict's outcome within a bulk resolution.
type BulkResolveItem struct {
	ConflictID string
	Error string // empty on success
}
