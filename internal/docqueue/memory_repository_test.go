package docqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/domain"
)

// memoryRepository is a full in-memory Repository used by this package's
// tests, mirroring internal/queue's memoryRepository fake but keyed by
// document_id.
type memoryRepository struct {
	mu        sync.Mutex
	tasks     map[string]*domain.DocumentTask
	documents map[string]*domain.Document
	chunks    map[string][]*domain.DocumentChunk
	texts     map[string]string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		tasks:     make(map[string]*domain.DocumentTask),
		documents: make(map[string]*domain.Document),
		chunks:    make(map[string][]*domain.DocumentChunk),
		texts:     make(map[string]string),
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTask(t *domain.DocumentTask) *domain.DocumentTask {
	c := *t
	c.NextRetry = clonePtr(t.NextRetry)
	c.StartedAt = clonePtr(t.StartedAt)
	c.CompletedAt = clonePtr(t.CompletedAt)
	c.LastAttempt = clonePtr(t.LastAttempt)
	return &c
}

func (r *memoryRepository) FindDuplicate(_ context.Context, documentID string) (*domain.DocumentTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if t.DocumentID != documentID {
			continue
		}
		if t.Status != domain.JobStatusPending && t.Status != domain.JobStatusInProgress {
			continue
		}
		return cloneTask(t), nil
	}
	return nil, nil
}

func (r *memoryRepository) Insert(_ context.Context, task *domain.DocumentTask) (*domain.DocumentTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC()
	stored := cloneTask(task)
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.tasks[id] = stored
	return cloneTask(stored), nil
}

func (r *memoryRepository) GetPending(_ context.Context, limit int) ([]*domain.DocumentTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var matches []*domain.DocumentTask
	for _, t := range r.tasks {
		if t.Status != domain.JobStatusPending {
			continue
		}
		if t.NextRetry == nil || t.NextRetry.After(now) {
			continue
		}
		matches = append(matches, t)
	}

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0; j-- {
			a, b := matches[j-1], matches[j]
			swap := a.Priority < b.Priority || (a.Priority == b.Priority && a.CreatedAt.After(b.CreatedAt))
			if !swap {
				break
			}
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*domain.DocumentTask, len(matches))
	for i, t := range matches {
		out[i] = cloneTask(t)
	}
	return out, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*domain.DocumentTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneTask(t), nil
}

func (r *memoryRepository) ClaimPending(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != domain.JobStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	t.Status = domain.JobStatusInProgress
	t.StartedAt = &now
	t.UpdatedAt = now
	return true, nil
}

func (r *memoryRepository) MarkCompleted(_ context.Context, id string, result map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	t.Status = domain.JobStatusCompleted
	t.CompletedAt = &now
	t.NextRetry = nil
	if result != nil {
		t.Result = result
	}
	t.UpdatedAt = now
	return nil
}

func (r *memoryRepository) MarkFailedRetry(_ context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return false, domain.ErrNotFound
	}

	now := time.Now().UTC()
	t.Attempts++
	t.LastAttempt = &now
	msg := domain.TruncateErrorMessage(errorMessage)
	t.ErrorMessage = &msg
	if errorContext != nil {
		t.ErrorContext = errorContext
	}

	retryable := domain.IsRetryableMessage(errorMessage)
	if !retryable || t.Attempts >= t.MaxAttempts {
		t.Status = domain.JobStatusFailed
		t.NextRetry = nil
		t.CompletedAt = &now
		t.UpdatedAt = now
		return false, nil
	}

	next := now.Add(domain.NextRetryDelay(t.Attempts))
	t.Status = domain.JobStatusPending
	t.NextRetry = &next
	t.UpdatedAt = now
	return true, nil
}

func (r *memoryRepository) RecoverStuck(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, t := range r.tasks {
		if t.Status != domain.JobStatusInProgress || t.StartedAt == nil {
			continue
		}
		if now.Sub(*t.StartedAt) <= domain.StuckThreshold {
			continue
		}
		t.Status = domain.JobStatusPending
		t.NextRetry = &now
		msg := "recovered from stuck in_progress state"
		t.ErrorMessage = &msg
		t.UpdatedAt = now
		count++
	}
	return count, nil
}

func (r *memoryRepository) ManualRetry(_ context.Context, id string, resetAttempts bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	t.Status = domain.JobStatusPending
	t.NextRetry = &now
	t.ErrorMessage = nil
	t.ErrorContext = nil
	t.CompletedAt = nil
	if resetAttempts {
		t.Attempts = 0
	}
	t.UpdatedAt = now
	return nil
}

func (r *memoryRepository) Cancel(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	if t.Status != domain.JobStatusPending {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *memoryRepository) GetDocument(_ context.Context, documentID string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.documents[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (r *memoryRepository) SaveExtractedText(_ context.Context, documentID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.texts[documentID] = text
	return nil
}

func (r *memoryRepository) ReplaceChunks(_ context.Context, documentID string, chunks []*domain.DocumentChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks[documentID] = chunks
	return nil
}
