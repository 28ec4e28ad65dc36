package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novuscrm/syncwork/internal/domain"
)

func newTestService(rules []domain.AutoResolutionRule) (*Service, *memoryEntities, *memoryConflicts) {
	entities := newMemoryEntities()
	conflicts := newMemoryConflicts()
	svc := NewService(entities, conflicts, &memoryRules{rules: rules}, nil)
	return svc, entities, conflicts
}

func TestDetect_NoRulesOpensConflictForAllFields(t *testing.T) {
	svc, entities, _ := newTestService(nil)
	record := &Record{
		ID:         "c1",
		EntityType: domain.EntityTypeContact,
		Attributes: map[string]any{"name": "Ada", "email": "ada@old.com"},
	}
	entities.seed(record)

	conflict, err := svc.Detect(context.Background(), record, map[string]any{"email": "ada@new.com"}, []string{"email"})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, []string{"email"}, conflict.ConflictFields)
	assert.False(t, conflict.IsResolved())
}

func TestDetect_RuleResolvesAllFieldsProducesNoConflict(t *testing.T) {
	rules := []domain.AutoResolutionRule{
		{ID: "r1", EntityType: domain.EntityTypeContact, FieldName: "email", PreferredSource: domain.PreferredSourceExternal, IsEnabled: true, Priority: 1},
	}
	svc, entities, _ := newTestService(rules)
	record := &Record{
		ID:         "c1",
		EntityType: domain.EntityTypeContact,
		Attributes: map[string]any{"name": "Ada", "email": "ada@old.com"},
	}
	entities.seed(record)

	conflict, err := svc.Detect(context.Background(), record, map[string]any{"email": "ada@new.com"}, []string{"email"})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	updated, err := entities.Get(context.Background(), domain.EntityTypeContact, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ada@new.com", updated.Attributes["email"])
}

func TestDetect_PartialRuleCoverageLeavesRemainderOpen(t *testing.T) {
	rules := []domain.AutoResolutionRule{
		{ID: "r1", EntityType: domain.EntityTypeContact, FieldName: "email", PreferredSource: domain.PreferredSourceExternal, IsEnabled: true, Priority: 1},
	}
	svc, entities, _ := newTestService(rules)
	record := &Record{
		ID:         "c1",
		EntityType: domain.EntityTypeContact,
		Attributes: map[string]any{"name": "Ada Old", "email": "ada@old.com"},
	}
	entities.seed(record)

	conflict, err := svc.Detect(context.Background(), record,
		map[string]any{"email": "ada@new.com", "name": "Ada New"},
		[]string{"email", "name"})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, []string{"name"}, conflict.ConflictFields)
}

func TestResolve_KeepExternalCopiesWhitelistedFieldsOnly(t *testing.T) {
	svc, entities, conflicts := newTestService(nil)
	record := &Record{
		ID:         "c1",
		EntityType: domain.EntityTypeContact,
		Attributes: map[string]any{"name": "Ada Old", "email": "ada@old.com"},
	}
	entities.seed(record)

	conflict, err := conflicts.Create(context.Background(), &domain.SyncConflict{
		ID:             "conf-1",
		EntityType:     domain.EntityTypeContact,
		EntityID:       "c1",
		NPDData:        record.Attributes,
		ExternalData:   map[string]any{"name": "Ada New", "id": "should-never-apply"},
		ConflictFields: []string{"name", "id"},
	})
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), domain.ResolveParams{
		ConflictID:     conflict.ID,
		ResolutionType: domain.ResolutionKeepExternal,
	})
	require.NoError(t, err)
	require.True(t, resolved.IsResolved())

	updated, err := entities.Get(context.Background(), domain.EntityTypeContact, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada New", updated.Attributes["name"])
	assert.NotEqual(t, "should-never-apply", updated.ID, "the forbidden id field must never be overwritten")
}

func TestResolve_MergeRequiresSelections(t *testing.T) {
	svc, entities, conflicts := newTestService(nil)
	entities.seed(&Record{ID: "c1", EntityType: domain.EntityTypeContact, Attributes: map[string]any{"name": "Ada"}})
	conflict, _ := conflicts.Create(context.Background(), &domain.SyncConflict{
		ID: "conf-1", EntityType: domain.EntityTypeContact, EntityID: "c1", ConflictFields: []string{"name"},
	})

	_, err := svc.Resolve(context.Background(), domain.ResolveParams{
		ConflictID:     conflict.ID,
		ResolutionType: domain.ResolutionMerge,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestResolve_IsIdempotent(t *testing.T) {
	svc, entities, conflicts := newTestService(nil)
	entities.seed(&Record{ID: "c1", EntityType: domain.EntityTypeContact, Attributes: map[string]any{"name": "Ada"}})
	conflict, _ := conflicts.Create(context.Background(), &domain.SyncConflict{
		ID: "conf-1", EntityType: domain.EntityTypeContact, EntityID: "c1",
		ExternalData: map[string]any{"name": "Ada New"}, ConflictFields: []string{"name"},
	})

	first, err := svc.Resolve(context.Background(), domain.ResolveParams{ConflictID: conflict.ID, ResolutionType: domain.ResolutionKeepExternal})
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), domain.ResolveParams{ConflictID: conflict.ID, ResolutionType: domain.ResolutionKeepLocal})
	require.NoError(t, err)
	assert.Equal(t, *first.ResolutionType, *second.ResolutionType, "re-resolving must return the original resolution unmutated")
}

func TestBulkResolve_RejectsMerge(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.BulkResolve(context.Background(), domain.BulkResolveParams{
		ConflictIDs:    []string{"a", "b"},
		ResolutionType: domain.ResolutionMerge,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestBulkResolve_CollectsPerConflictFailures(t *testing.T) {
	svc, entities, conflicts := newTestService(nil)
	entities.seed(&Record{ID: "c1", EntityType: domain.EntityTypeContact, Attributes: map[string]any{"name": "Ada"}})
	ok, _ := conflicts.Create(context.Background(), &domain.SyncConflict{
		ID: "conf-ok", EntityType: domain.EntityTypeContact, EntityID: "c1", ConflictFields: []string{"name"},
	})

	result, err := svc.BulkResolve(context.Background(), domain.BulkResolveParams{
		ConflictIDs:    []string{ok.ID, "conf-missing"},
		ResolutionType: domain.ResolutionKeepLocal,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
}
