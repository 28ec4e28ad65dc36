package tags

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSynonyms_ExcludesSelfAndIsCycleSafe(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	// A cycle: A-B, B-C, C-A, plus a pendant D off B.
	repo.addEdge("A", "B")
	repo.addEdge("B", "C")
	repo.addEdge("C", "A")
	repo.addEdge("B", "D")

	svc := NewService(repo)

	closure, err := svc.GetSynonyms(ctx, "A")
	require.NoError(t, err)
	sort.Strings(closure)
	assert.Equal(t, []string{"B", "C", "D"}, closure)
	assert.NotContains(t, closure, "A")
}

func TestGetSynonyms_SymmetricClosure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.addEdge("A", "B")
	svc := NewService(repo)

	aSyn, err := svc.GetSynonyms(ctx, "A")
	require.NoError(t, err)
	bSyn, err := svc.GetSynonyms(ctx, "B")
	require.NoError(t, err)

	assert.Contains(t, aSyn, "B")
	assert.Contains(t, bSyn, "A")
}

func TestGetSynonyms_NoEdgesIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())

	closure, err := svc.GetSynonyms(ctx, "lonely")
	require.NoError(t, err)
	assert.Empty(t, closure)
}

func TestExpandTagIdsWithSynonyms(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.addEdge("A", "B")
	svc := NewService(repo)

	result, err := svc.ExpandTagIdsWithSynonyms(ctx, []string{"A"})
	require.NoError(t, err)

	sort.Strings(result.Expanded)
	assert.Equal(t, []string{"A", "B"}, result.Expanded)
	assert.Equal(t, []string{"B"}, result.PerOrigin["A"])
}

func TestMergeTags_RequiresDistinctSourceAndTarget(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())

	_, err := svc.MergeTags(ctx, "A", "A")
	require.Error(t, err)
}

func TestMergeTags_TransfersSynonymsAndProjectsThenDeletesSource(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.addEdge("source", "other")
	repo.projects["source"] = []string{"p1", "p2"}
	repo.projects["target"] = []string{"p2"} // already tagged with p2

	svc := NewService(repo)
	count, err := svc.MergeTags(ctx, "source", "target")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only p1 is new to target")

	assert.True(t, repo.deleted["source"])
	assert.ElementsMatch(t, []string{"p1", "p2"}, repo.projects["target"])

	targetNeighbors, err := repo.Neighbors(ctx, "target")
	require.NoError(t, err)
	assert.Contains(t, targetNeighbors, "other")
}
