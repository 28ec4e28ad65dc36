package docqueue

import (
	"context"
	"testing"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessQueue_RunsPipelineAndCompletes(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.documents["doc-1"] = newTestDoc("doc-1")
	svc := NewService(repo)

	store := &fakeStorage{objects: map[string][]byte{"doc-1": []byte("raw bytes")}}
	pipeline := NewPipeline(repo, store, &fakeExtractor{text: "short document text."}, &fakeEmbedder{})

	task, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)

	proc := NewProcessor(svc, pipeline)
	result, err := proc.ProcessQueue(ctx)
	require.NoError(t, err)

	assert.Equal(t, TickStatusSuccess, result.Status)
	assert.Equal(t, 1, result.ItemsSucceeded)

	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
}

func TestProcessQueue_MissingFileIsPermanentFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.documents["doc-1"] = newTestDoc("doc-1")
	svc := NewService(repo)

	store := &fakeStorage{objects: map[string][]byte{}} // file missing
	pipeline := NewPipeline(repo, store, &fakeExtractor{}, &fakeEmbedder{})

	task, err := svc.Enqueue(ctx, "doc-1", domain.DocumentOperationProcess, 0, true)
	require.NoError(t, err)

	proc := NewProcessor(svc, pipeline)
	result, err := proc.ProcessQueue(ctx)
	require.NoError(t, err)

	assert.Equal(t, TickStatusError, result.Status)
	assert.Equal(t, 1, result.ItemsMaxRetries)

	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
}
