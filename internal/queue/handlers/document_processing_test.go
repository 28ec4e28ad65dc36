package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novuscrm/syncwork/internal/docqueue"
	"github.com/novuscrm/syncwork/internal/domain"
)

// fakeDocQueueRepo is a minimal docqueue.Repository stub exercising only
// the enqueue path this handler drives.
type fakeDocQueueRepo struct {
	inserted []*domain.DocumentTask
}

func (f *fakeDocQueueRepo) FindDuplicate(context.Context, string) (*domain.DocumentTask, error) {
	return nil, nil
}

func (f *fakeDocQueueRepo) Insert(_ context.Context, task *domain.DocumentTask) (*domain.DocumentTask, error) {
	stored := *task
	stored.ID = "task-1"
	f.inserted = append(f.inserted, &stored)
	return &stored, nil
}

func (f *fakeDocQueueRepo) GetPending(context.Context, int) ([]*domain.DocumentTask, error) { return nil, nil }
func (f *fakeDocQueueRepo) Get(context.Context, string) (*domain.DocumentTask, error)       { return nil, nil }
func (f *fakeDocQueueRepo) ClaimPending(context.Context, string) (bool, error)               { return true, nil }
func (f *fakeDocQueueRepo) MarkCompleted(context.Context, string, map[string]any) error      { return nil }
func (f *fakeDocQueueRepo) MarkFailedRetry(context.Context, string, string, map[string]any) (bool, error) {
	return false, nil
}
func (f *fakeDocQueueRepo) RecoverStuck(context.Context) (int, error)      { return 0, nil }
func (f *fakeDocQueueRepo) ManualRetry(context.Context, string, bool) error { return nil }
func (f *fakeDocQueueRepo) Cancel(context.Context, string) (bool, error)    { return false, nil }
func (f *fakeDocQueueRepo) GetDocument(context.Context, string) (*domain.Document, error) {
	return nil, nil
}
func (f *fakeDocQueueRepo) SaveExtractedText(context.Context, string, string) error { return nil }
func (f *fakeDocQueueRepo) ReplaceChunks(context.Context, string, []*domain.DocumentChunk) error {
	return nil
}

func TestDocumentProcessingHandler_EnqueuesOntoDocumentQueue(t *testing.T) {
	repo := &fakeDocQueueRepo{}
	handler := NewDocumentProcessingHandler(docqueue.NewService(repo))

	documentID := "doc-1"
	job := &domain.Job{EntityID: &documentID, Priority: 5}
	result, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "task-1", result["document_task_id"])
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, domain.DocumentOperationProcess, repo.inserted[0].Operation)
}
