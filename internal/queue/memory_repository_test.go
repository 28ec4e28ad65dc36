package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/domain"
)

// memoryRepository is a full in-memory Repository used by this package's
// tests. It implements the real dedup/claim/backoff semantics (not just
// canned responses) so processor and service tests exercise end-to-end
// behavior without a database.
type memoryRepository struct {
	mu sync.Mutex
	jobs map[string]*domain.Job
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{jobs: make(map[string]*domain.Job)}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
 return nil
	}
	c:= *v
	return &c
}

func cloneJob(j *domain.Job) *domain.Job {
	c:= *j
	c.NextRetry = clonePtr(j.NextRetry)
	c.StartedAt = clonePtr(j.StartedAt)
	c.CompletedAt = clonePtr(j.CompletedAt)
	c.LastAttempt = clonePtr(j.LastAttempt)
	return &c
}

func (r *memoryRepository) FindDuplicate(_ context.Context, jobType domain.JobType, entityType, entityID *string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j:= range r.jobs {
 if j.JobType != jobType {
 continue
 }
 if j.Status != domain.JobStatusPending && j.Status != domain.JobStatusInProgress {
 continue
 }
 if !strPtrEqual(entityType, j.EntityType) || !strPtrEqual(entityID, j.EntityID) {
 continue
 }
 return cloneJob(j), nil
	}
	return nil, nil
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
 return a == b
	}
	return *a == *b
}

func (r *memoryRepository) Insert(_ context.Context, job *domain.Job) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	now:= time.Now().UTC()
	stored:= cloneJob(job)
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.jobs[id] = stored
	return cloneJob(stored), nil
}

func (r *memoryRepository) GetPending(_ context.Context, jobType *domain.JobType, limit int) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now:= time.Now().UTC()
	var matches []*domain.Job
	for _, j:= range r.jobs {
 if j.Status != domain.JobStatusPending {
 continue
 }
 if j.NextRetry == nil || j.NextRetry.After(now) {
 continue
 }
 if jobType != nil && j.JobType != *jobType {
 continue
 }
 matches = append(matches, j)
	}

	sortByPriorityThenCreated(matches)

	if len(matches) > limit {
 matches = matches[:limit]
	}

	out:= make([]*domain.Job, len(matches))
	for i, j:= range matches {
 out[i] = cloneJob(j)
	}
	return out, nil
}

func sortByPriorityThenCreated(jobs []*domain.Job) {
	for i:= 1; i < len(jobs); i++ {
 for j:= i; j > 0; j-- {
 a, b:= jobs[j-1], jobs[j]
 swap:= a.Priority < b.Priority ||
 (a.Priority == b.Priority && a.CreatedAt.After(b.CreatedAt))
 if !swap {
 break
 }
 jobs[j-1], jobs[j] = jobs[j], jobs[j-1]
 }
	}
}

func (r *memoryRepository) Get(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return nil, domain.ErrNotFound
	}
	return cloneJob(j), nil
}

func (r *memoryRepository) ClaimPending(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return false, domain.ErrNotFound
	}
	if j.Status != domain.JobStatusPending {
 return false, nil
	}
	now:= time.Now().UTC()
	j.Status = domain.JobStatusInProgress
	j.StartedAt = &now
	j.UpdatedAt = now
	return true, nil
}

func (r *memoryRepository) MarkCompleted(_ context.Context, id string, result map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return domain.ErrNotFound
	}
	now:= time.Now().UTC()
	j.Status = domain.JobStatusCompleted
	j.CompletedAt = &now
	j.NextRetry = nil
	if result != nil {
 j.Result = result
	}
	j.UpdatedAt = now
	return nil
}

func (r *memoryRepository) MarkFailedRetry(_ context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return false, domain.ErrNotFound
	}

	now:= time.Now().UTC()
	j.Attempts++
	j.LastAttempt = &now
	msg:= domain.TruncateErrorMessage(errorMessage)
	j.ErrorMessage = &msg
	if errorContext != nil {
 j.ErrorContext = errorContext
	}

	retryable:= domain.IsRetryableMessage(errorMessage)
	if !retryable || j.Attempts >= j.MaxAttempts {
 j.Status = domain.JobStatusFailed
 j.NextRetry = nil
 j.CompletedAt = &now
 j.UpdatedAt = now
 return false, nil
	}

	next:= now.Add(domain.NextRetryDelay(j.Attempts))
	j.Status = domain.JobStatusPending
	j.NextRetry = &next
	j.UpdatedAt = now
	return true, nil
}

func (r *memoryRepository) RecoverStuck(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now:= time.Now().UTC()
	count:= 0
	for _, j:= range r.jobs {
 if j.Status != domain.JobStatusInProgress || j.StartedAt == nil {
 continue
 }
 if now.Sub(*j.StartedAt) <= domain.StuckThreshold {
 continue
 }
 j.Status = domain.JobStatusPending
 j.NextRetry = &now
 msg:= "recovered from stuck in_progress state"
 j.ErrorMessage = &msg
 j.UpdatedAt = now
 count++
	}
	return count, nil
}

func (r *memoryRepository) ManualRetry(_ context.Context, id string, resetAttempts bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return domain.ErrNotFound
	}
	now:= time.Now().UTC()
	j.Status = domain.JobStatusPending
	j.NextRetry = &now
	j.ErrorMessage = nil
	j.ErrorContext = nil
	j.CompletedAt = nil
	if resetAttempts {
 j.Attempts = 0
	}
	j.UpdatedAt = now
	return nil
}

func (r *memoryRepository) Cancel(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok:= r.jobs[id]
	if !ok {
 return false, nil
	}
	if j.Status != domain.JobStatusPending {
 return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}
