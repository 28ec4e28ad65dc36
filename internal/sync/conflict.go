package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Service detects and resolves sync conflicts between a local entity and its
// external board counterpart.
type Service struct {
	entities EntityRepository
	conflicts ConflictRepository
	rules RuleRepository
	egress *EgressService // optional; triggers a re-push after keep_local
}

// NewService builds a conflict Service. egress may be nil, in which case
// keep_local resolutions mark the entity SYNCED without re-pushing it.
func NewService(entities EntityRepository, conflicts ConflictRepository, rules RuleRepository, egress *EgressService) *Service {
	return &Service{entities: entities, conflicts: conflicts, rules: rules, egress: egress}
}

// Detect evaluates enabled auto-resolution rules against conflictFields
// before opening a conflict. A field a rule matches is applied directly to
// record and never stored in the conflict, unless the field is outside the
// resolvable whitelist: such a rule is skipped and the field stays in the
// conflict. If every conflicting field is
// resolved this way, Detect persists record and returns (nil, nil) — no
// conflict is created. Remaining fields open a SyncConflict.
func (s *Service) Detect(ctx context.Context, record *Record, externalData map[string]any, conflictFields []string) (*domain.SyncConflict, error) {
	rules, err:= s.rules.ListEnabled(ctx, record.EntityType)
	if err != nil {
 return nil, fmt.Errorf("failed to list auto-resolution rules: %w", err)
	}

	npdData:= record.Attributes
	remaining:= make([]string, 0, len(conflictFields))
	autoResolved:= false

	for _, field:= range conflictFields {
 rule:= findRule(rules, field)
 if rule == nil {
 remaining = append(remaining, field)
 continue
 }
 value:= applyRule(*rule, npdData[field], unwrapValue(field, externalData[field]))
 if !isResolvable(record.EntityType, field) {
 slog.WarnContext(ctx, "auto-resolution rule matched a non-whitelisted field, skipping", "field", field, "entity_type", record.EntityType)
 remaining = append(remaining, field)
 continue
 }
 record.Attributes[field] = value
 autoResolved = true
	}

	if autoResolved {
 if err:= s.entities.Save(ctx, record); err != nil {
 return nil, fmt.Errorf("failed to persist auto-resolved entity: %w", err)
 }
	}

	if len(remaining) == 0 {
 return nil, nil
	}

	conflict:= &domain.SyncConflict{
 ID: uuid.NewString(),
 EntityType: record.EntityType,
 EntityID: record.ID,
 NPDData: npdData,
 ExternalData: externalData,
 ConflictFields: remaining,
 DetectedAt: time.Now().UTC(),
	}
	return s.conflicts.Create(ctx, conflict)
}

// Resolve applies a resolution to a single conflict. Resolving an
// already-resolved conflict is idempotent: it returns the stored conflict
// unmutated.
func (s *Service) Resolve(ctx context.Context, params domain.ResolveParams) (*domain.SyncConflict, error) {
	conflict, err:= s.conflicts.Get(ctx, params.ConflictID)
	if err != nil {
 return nil, err
	}
	if conflict.IsResolved() {
 return conflict, nil
	}

	if params.ResolutionType == domain.ResolutionMerge && len(params.MergeSelections) == 0 {
 return nil, fmt.Errorf("%w: merge resolution requires merge_selections", domain.ErrInvalidArgument)
	}

	record, err:= s.entities.Get(ctx, conflict.EntityType, conflict.EntityID)
	if err != nil {
 return nil, fmt.Errorf("failed to load entity for resolution: %w", err)
	}

	for _, field:= range conflict.ConflictFields {
 if !isResolvable(conflict.EntityType, field) {
 continue
 }

 source:= resolutionSourceFor(params, field)
 switch source {
 case domain.PreferredSourceLocal:
 // Local value already holds; nothing to write.
 case domain.PreferredSourceExternal:
 record.Attributes[field] = unwrapValue(field, conflict.ExternalData[field])
 }
	}

	record.SyncStatus = domain.SyncStatusSynced
	if err:= s.entities.Save(ctx, record); err != nil {
 return nil, fmt.Errorf("failed to persist resolved entity: %w", err)
	}

	now:= time.Now().UTC()
	conflict.ResolvedAt = &now
	resolutionType:= params.ResolutionType
	conflict.ResolutionType = &resolutionType
	conflict.ResolvedByID = params.ResolvedByID

	if err:= s.conflicts.Save(ctx, conflict); err != nil {
 return nil, fmt.Errorf("failed to persist resolved conflict: %w", err)
	}

	if params.ResolutionType == domain.ResolutionKeepLocal && s.egress != nil {
 s.egress.Push(ctx, conflict.EntityType, conflict.EntityID)
	}
	return conflict, nil
}

// resolutionSourceFor maps a ResolveParams' resolution type (and, for
// merge, its per-field selections) onto which side a field should take.
func resolutionSourceFor(params domain.ResolveParams, field string) domain.PreferredSource {
	switch params.ResolutionType {
	case domain.ResolutionKeepExternal:
 return domain.PreferredSourceExternal
	case domain.ResolutionMerge:
 if params.MergeSelections[field] == "external" {
 return domain.PreferredSourceExternal
 }
 return domain.PreferredSourceLocal
	default: // keep_local
 return domain.PreferredSourceLocal
	}
}

// BulkResolve resolves many conflicts with a single resolution type. Merge
// is rejected here because it needs per-conflict field selections (
// "Bulk resolution"). A single conflict's failure does not abort the batch.
func (s *Service) BulkResolve(ctx context.Context, params domain.BulkResolveParams) (*domain.BulkResolveResult, error) {
	if params.ResolutionType == domain.ResolutionMerge {
 return nil, fmt.Errorf("%w: bulk resolution does not support merge", domain.ErrInvalidArgument)
	}

	result:= &domain.BulkResolveResult{Total: len(params.ConflictIDs)}
	var errs error

	for _, id:= range params.ConflictIDs {
 _, err:= s.Resolve(ctx, domain.ResolveParams{
 ConflictID: id,
 ResolutionType: params.ResolutionType,
 ResolvedByID: params.ResolvedByID,
 })
 item:= domain.BulkResolveItem{ConflictID: id}
 if err != nil {
 item.Error = err.Error()
 result.Failed++
 errs = multierr.Append(errs, fmt.Errorf("conflict %s: %w", id, err))
 } else {
 result.Succeeded++
 }
 result.Results = append(result.Results, item)
	}

	if errs != nil {
 slog.WarnContext(ctx, "bulk resolution had failures", "total", result.Total, "failed", result.Failed, "error", errs)
	}
	return result, nil
}
