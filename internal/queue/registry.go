package queue

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Handler processes one job's business logic. It receives the job
// (read-only to it — lifecycle fields are the dispatcher's responsibility)
// and must either return a result map or an error. Handlers should be
// idempotent: at-least-once delivery means a crash between the handler's own
// commit and markCompleted will cause a retry.
type Handler func(ctx context.Context, job *domain.Job) (map[string]any, error)

// Registry is a process-wide mapping from job type to handler, populated at
// startup before the first tick and read-only thereafter. It intentionally avoids reflection — a plain map keyed by the
// job's own enum is both the simplest and the most explicit dispatch table.
type Registry struct {
	handlers map[domain.JobType]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.JobType]Handler)}
}

// Register binds a handler to a job type. Re-registering a job type
// overwrites the previous handler; callers are expected to do this once at
// startup.
func (r *Registry) Register(jobType domain.JobType, handler Handler) {
	r.handlers[jobType] = handler
}

// Lookup returns the handler for a job type, or ErrNoHandler if none is
// registered.
func (r *Registry) Lookup(jobType domain.JobType) (Handler, error) {
	h, ok:= r.handlers[jobType]
	if !ok {
 return nil, fmt.Errorf("%w: %s", domain.ErrNoHandler, jobType)
	}
	return h, nil
}
