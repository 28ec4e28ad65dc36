package docqueue

import (
	"context"
	"testing"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueue_DeduplicatesPerDocument(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())

	first, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)

	second, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := svc.Enqueue(ctx, "doc-2", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestEnqueue_DeduplicateFalseAlwaysCreates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())

	first, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, false)
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecoverStuck_ThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := NewService(repo)

	task, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)
	_, err = svc.MarkInProgress(ctx, task.ID)
	require.NoError(t, err)

	stuck := repo.tasks[task.ID]
	started := stuck.StartedAt.Add(-domain.StuckThreshold - 1)
	stuck.StartedAt = &started

	count, err := svc.RecoverStuck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, got.Status)
}
