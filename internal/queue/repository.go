package queue

import (
	"context"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Repository defines the persistence operations the generic job queue needs.
//
// This interface is owned by the queue package (consumer), not by the
// storage package (provider), keeping the dependency pointing from storage
// toward domain logic rather than the other way around.
type Repository interface {
	// FindDuplicate returns an existing pending/in_progress job matching
	// (job_type, entity_type, entity_id), where a nil filter matches rows
	// whose corresponding column is also null. Returns (nil, nil) if none.
	FindDuplicate(ctx context.Context, jobType domain.JobType, entityType, entityID *string) (*domain.Job, error)

	// Insert persists a new pending job and returns it with its generated ID.
	Insert(ctx context.Context, job *domain.Job) (*domain.Job, error)

	// GetPending returns up to limit pending jobs with next_retry <= now,
	// optionally filtered by job type, ordered priority DESC, created_at ASC.
	GetPending(ctx context.Context, jobType *domain.JobType, limit int) ([]*domain.Job, error)

	// Get retrieves a single job by ID.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// ClaimPending atomically transitions a pending job to in_progress,
	// returning false if the row was no longer pending (already claimed by
	// a concurrent ticker).
	ClaimPending(ctx context.Context, id string) (bool, error)

	// MarkCompleted finalizes a successful job.
	MarkCompleted(ctx context.Context, id string, result map[string]any) error

	// MarkFailedRetry applies the classification and either requeues
	// the job (pending, bumped attempts, new next_retry) or fails it
	// permanently (failed, next_retry cleared). Returns whether it was
	// requeued.
	MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (requeued bool, err error)

	// RecoverStuck resets every in_progress row whose started_at is older
	// than domain.StuckThreshold back to pending, and returns the count.
	RecoverStuck(ctx context.Context) (int, error)

	// ManualRetry moves a failed or stuck job back to pending, clearing
	// error_message/error_context/completed_at, optionally resetting attempts.
	ManualRetry(ctx context.Context, id string, resetAttempts bool) error

	// Cancel deletes the job only if it is still pending; returns whether a
	// row was removed.
	Cancel(ctx context.Context, id string) (bool, error)
}
