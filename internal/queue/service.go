package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Service implements the generic job queue operations of, independent
// of the dispatch tick (see Processor for that).
type Service struct {
	repo Repository
}

// NewService creates a job queue service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue creates a job, or returns the existing pending/in_progress job for
// the same (job_type, entity_type, entity_id) when deduplicate is true
// (default). This is what makes enqueue(JIRA_REFRESH) a global singleton
// while enqueue(DOCUMENT_PROCESSING, entity_id=D) is per-document.
func (s *Service) Enqueue(ctx context.Context, params domain.EnqueueParams) (*domain.Job, error) {
	params.Normalize()

	if *params.Deduplicate {
 existing, err:= s.repo.FindDuplicate(ctx, params.JobType, params.EntityType, params.EntityID)
 if err != nil {
 return nil, fmt.Errorf("failed to check for duplicate job: %w", err)
 }
 if existing != nil {
 slog.InfoContext(ctx, "job already exists, skipping enqueue",
 "job_id", existing.ID, "job_type", existing.JobType, "status", existing.Status)
 return existing, nil
 }
	}

	now:= time.Now().UTC()
	job:= &domain.Job{
 JobType: params.JobType,
 Status: domain.JobStatusPending,
 EntityType: params.EntityType,
 EntityID: params.EntityID,
 Payload: params.Payload,
 Priority: params.Priority,
 MaxAttempts: params.MaxAttempts,
 NextRetry: &now,
 CreatedBy: params.CreatedBy,
	}

	created, err:= s.repo.Insert(ctx, job)
	if err != nil {
 return nil, fmt.Errorf("failed to create job: %w", err)
	}

	slog.InfoContext(ctx, "job created",
 "job_id", created.ID, "job_type", created.JobType, "priority", created.Priority)

	return created, nil
}

// GetPending returns eligible pending jobs.
func (s *Service) GetPending(ctx context.Context, jobType *domain.JobType, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
 limit = domain.DefaultGetPendingLimit
	}
	return s.repo.GetPending(ctx, jobType, limit)
}

// Get retrieves a single job.
func (s *Service) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.repo.Get(ctx, id)
}

// MarkInProgress claims a pending job for processing. It returns false
// (with no error) if the job was no longer pending — the claim barrier that
// lets concurrent tickers pass over each other's work.
func (s *Service) MarkInProgress(ctx context.Context, id string) (bool, error) {
	return s.repo.ClaimPending(ctx, id)
}

// MarkCompleted finalizes a successful job. Idempotent: calling it twice on
// an already-completed job leaves the same terminal state (the repository
// implementation is expected to make this a plain UPDATE, not a
// status-guarded transition).
func (s *Service) MarkCompleted(ctx context.Context, id string, result map[string]any) error {
	if err:= s.repo.MarkCompleted(ctx, id, result); err != nil {
 return fmt.Errorf("failed to mark job completed: %w", err)
	}
	slog.InfoContext(ctx, "job completed", "job_id", id)
	return nil
}

// MarkFailedRetry applies the back-off/classification policy.
func (s *Service) MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	requeued, err:= s.repo.MarkFailedRetry(ctx, id, errorMessage, errorContext)
	if err != nil {
 return false, fmt.Errorf("failed to mark job failed/retry: %w", err)
	}
	if requeued {
 slog.WarnContext(ctx, "job requeued for retry", "job_id", id, "error", errorMessage)
	} else {
 slog.ErrorContext(ctx, "job failed permanently", "job_id", id, "error", errorMessage)
	}
	return requeued, nil
}

// RecoverStuck resets jobs stuck in_progress beyond domain.StuckThreshold.
func (s *Service) RecoverStuck(ctx context.Context) (int, error) {
	count, err:= s.repo.RecoverStuck(ctx)
	if err != nil {
 return 0, fmt.Errorf("failed to recover stuck jobs: %w", err)
	}
	if count > 0 {
 slog.WarnContext(ctx, "recovered stuck jobs", "count", count)
	}
	return count, nil
}

// ManualRetry is the admin operation that moves a failed/stuck job back to
// pending.
func (s *Service) ManualRetry(ctx context.Context, id string, resetAttempts bool) error {
	if err:= s.repo.ManualRetry(ctx, id, resetAttempts); err != nil {
 return fmt.Errorf("failed to retry job: %w", err)
	}
	slog.InfoContext(ctx, "job manually retried", "job_id", id, "reset_attempts", resetAttempts)
	return nil
}

// Cancel deletes a pending job. Returns false if the job was not pending
// (in_progress jobs are deliberately left to complete; "Cancellation").
func (s *Service) Cancel(ctx context.Context, id string) (bool, error) {
	cancelled, err:= s.repo.Cancel(ctx, id)
	if err != nil {
 return false, fmt.Errorf("failed to cancel job: %w", err)
	}
	return cancelled, nil
}
