package sync

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/novuscrm/syncwork/internal/domain"
)

// queueFake is a minimal queue.Repository used only to observe whether
// egress enqueued a retry job; it does not implement back-off/claim
// semantics (internal/queue's own tests cover those).
type queueFake struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func newQueueFake() *queueFake {
	return &queueFake{jobs: make(map[string]*domain.Job)}
}

func (q *queueFake) FindDuplicate(_ context.Context, jobType domain.JobType, entityType, entityID *string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.JobType == jobType && strPtrEq(j.EntityID, entityID) {
			return j, nil
		}
	}
	return nil, nil
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (q *queueFake) Insert(_ context.Context, job *domain.Job) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	stored := *job
	stored.ID = uuid.NewString()
	q.jobs[stored.ID] = &stored
	return &stored, nil
}

func (q *queueFake) GetPending(_ context.Context, jobType *domain.JobType, limit int) ([]*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*domain.Job
	for _, j := range q.jobs {
		if jobType != nil && j.JobType != *jobType {
			continue
		}
		out = append(out, j)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *queueFake) Get(_ context.Context, id string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

func (q *queueFake) ClaimPending(context.Context, string) (bool, error) { return true, nil }

func (q *queueFake) MarkCompleted(_ context.Context, id string, _ map[string]any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		j.Status = domain.JobStatusCompleted
	}
	return nil
}

func (q *queueFake) MarkFailedRetry(context.Context, string, string, map[string]any) (bool, error) {
	return false, nil
}

func (q *queueFake) RecoverStuck(context.Context) (int, error) { return 0, nil }

func (q *queueFake) ManualRetry(_ context.Context, id string, _ bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		j.Status = domain.JobStatusPending
	}
	return nil
}

func (q *queueFake) Cancel(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[id]; !ok {
		return false, nil
	}
	delete(q.jobs, id)
	return true, nil
}

// memoryEntities is a full in-memory EntityRepository used by this
// package's tests.
type memoryEntities struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newMemoryEntities() *memoryEntities {
	return &memoryEntities{records: make(map[string]*Record)}
}

func cloneRecord(r *Record) *Record {
	c := *r
	attrs := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	c.Attributes = attrs
	return &c
}

func (m *memoryEntities) seed(record *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = cloneRecord(record)
}

func (m *memoryEntities) Get(_ context.Context, entityType domain.EntityType, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.EntityType != entityType {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *memoryEntities) FindByExternalID(_ context.Context, entityType domain.EntityType, externalID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.EntityType != entityType || r.ExternalID == nil || *r.ExternalID != externalID {
			continue
		}
		return cloneRecord(r), nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryEntities) Create(_ context.Context, entityType domain.EntityType, attrs map[string]any) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := &Record{ID: uuid.NewString(), EntityType: entityType, Attributes: attrs}
	m.records[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

func (m *memoryEntities) Save(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	m.records[record.ID] = cloneRecord(record)
	return nil
}

func (m *memoryEntities) Unlink(_ context.Context, entityType domain.EntityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.EntityType != entityType {
		return domain.ErrNotFound
	}
	r.ExternalID = nil
	r.ExternalLastSyncedAt = nil
	return nil
}

// memoryConflicts is a full in-memory ConflictRepository.
type memoryConflicts struct {
	mu        sync.Mutex
	conflicts map[string]*domain.SyncConflict
}

func newMemoryConflicts() *memoryConflicts {
	return &memoryConflicts{conflicts: make(map[string]*domain.SyncConflict)}
}

func (m *memoryConflicts) Create(_ context.Context, conflict *domain.SyncConflict) (*domain.SyncConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *conflict
	m.conflicts[c.ID] = &c
	return &c, nil
}

func (m *memoryConflicts) Get(_ context.Context, id string) (*domain.SyncConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conflicts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memoryConflicts) Save(_ context.Context, conflict *domain.SyncConflict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conflicts[conflict.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *conflict
	m.conflicts[c.ID] = &c
	return nil
}

// memoryRules is a stub RuleRepository whose rules are set directly by tests.
type memoryRules struct {
	rules []domain.AutoResolutionRule
}

func (m *memoryRules) ListEnabled(_ context.Context, entityType domain.EntityType) ([]domain.AutoResolutionRule, error) {
	var out []domain.AutoResolutionRule
	for _, r := range m.rules {
		if r.EntityType == entityType && r.IsEnabled {
			out = append(out, r)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Priority > out[j].Priority; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}
