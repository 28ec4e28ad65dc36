package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessQueue_DedupRunsOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())
	registry := NewRegistry()

	calls := 0
	registry.Register(domain.JobTypeJiraRefresh, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
		calls++
		return map[string]any{"refreshed": 1}, nil
	})

	_, err := svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)

	proc := NewProcessor(svc, registry)
	jt := domain.JobTypeJiraRefresh
	result, err := proc.ProcessQueue(ctx, &jt)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.ItemsProcessed)
	assert.Equal(t, 1, result.ItemsSucceeded)
	assert.Equal(t, TickStatusSuccess, result.Status)

	_, err = svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)

	result2, err := proc.ProcessQueue(ctx, &jt)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, result2.ItemsProcessed)
}

func TestProcessQueue_NoHandlerIsPermanentFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())
	registry := NewRegistry()

	job, err := svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)

	proc := NewProcessor(svc, registry)
	result, err := proc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsMaxRetries)
	assert.Equal(t, TickStatusError, result.Status)

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
}

func TestProcessQueue_HandlerPanicIsRecordedAsFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())
	registry := NewRegistry()

	registry.Register(domain.JobTypeJiraRefresh, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
		panic("boom")
	})

	job, err := svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)

	proc := NewProcessor(svc, registry)
	result, err := proc.ProcessQueue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsFailed)

	got, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Contains(t, *got.ErrorMessage, "boom")
}

func TestProcessQueue_MixedOutcomesIsPartial(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepository())
	registry := NewRegistry()

	registry.Register(domain.JobTypeJiraRefresh, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})
	registry.Register(domain.JobTypeBulkImport, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
		return nil, errors.New("not found: row 3")
	})

	_, err := svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeBulkImport})
	require.NoError(t, err)

	proc := NewProcessor(svc, registry)
	result, err := proc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, TickStatusPartial, result.Status)
	assert.Equal(t, 1, result.ItemsSucceeded)
	assert.Equal(t, 1, result.ItemsFailed)
}

func TestProcessQueue_RecoversStuckBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	svc := NewService(repo)
	registry := NewRegistry()

	called := false
	registry.Register(domain.JobTypeJiraRefresh, func(ctx context.Context, job *domain.Job) (map[string]any, error) {
		called = true
		return nil, nil
	})

	job, err := svc.Enqueue(ctx, domain.EnqueueParams{JobType: domain.JobTypeJiraRefresh})
	require.NoError(t, err)
	_, err = svc.MarkInProgress(ctx, job.ID)
	require.NoError(t, err)

	stuck := repo.jobs[job.ID]
	started := stuck.StartedAt.Add(-domain.StuckThreshold - 1)
	stuck.StartedAt = &started

	proc := NewProcessor(svc, registry)
	result, err := proc.ProcessQueue(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsRecovered)
	assert.True(t, called, "recovered job should be re-dispatched in the same tick")
}
