package docqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Service implements the document-task queue operations, the same
// shape as internal/queue.Service but deduplicated purely on document_id.
type Service struct {
	repo Repository
}

// NewService creates a document-task queue service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue creates a document task, or returns the existing pending/in_progress
// task for the same document when deduplicate is true (default).
func (s *Service) Enqueue(ctx context.Context, documentID string, operation domain.DocumentOperation, priority int, deduplicate bool) (*domain.DocumentTask, error) {
	if deduplicate {
 existing, err:= s.repo.FindDuplicate(ctx, documentID)
 if err != nil {
 return nil, fmt.Errorf("failed to check for duplicate document task: %w", err)
 }
 if existing != nil {
 slog.InfoContext(ctx, "document task already exists, skipping enqueue",
 "task_id", existing.ID, "document_id", documentID, "status", existing.Status)
 return existing, nil
 }
	}

	now:= time.Now().UTC()
	task:= &domain.DocumentTask{
 DocumentID: documentID,
 Operation: operation,
 Status: domain.JobStatusPending,
 Priority: priority,
 MaxAttempts: domain.DefaultMaxAttempts,
 NextRetry: &now,
	}

	created, err:= s.repo.Insert(ctx, task)
	if err != nil {
 return nil, fmt.Errorf("failed to create document task: %w", err)
	}

	slog.InfoContext(ctx, "document task created", "task_id", created.ID, "document_id", documentID)
	return created, nil
}

// GetPending returns eligible pending tasks.
func (s *Service) GetPending(ctx context.Context, limit int) ([]*domain.DocumentTask, error) {
	if limit <= 0 {
 limit = domain.DefaultGetPendingLimit
	}
	return s.repo.GetPending(ctx, limit)
}

// Get retrieves a single task.
func (s *Service) Get(ctx context.Context, id string) (*domain.DocumentTask, error) {
	return s.repo.Get(ctx, id)
}

// MarkInProgress claims a pending task, the claim barrier of step 3a
// applied to the document-task table.
func (s *Service) MarkInProgress(ctx context.Context, id string) (bool, error) {
	return s.repo.ClaimPending(ctx, id)
}

// MarkCompleted finalizes a successful task.
func (s *Service) MarkCompleted(ctx context.Context, id string, result map[string]any) error {
	if err:= s.repo.MarkCompleted(ctx, id, result); err != nil {
 return fmt.Errorf("failed to mark document task completed: %w", err)
	}
	slog.InfoContext(ctx, "document task completed", "task_id", id)
	return nil
}

// MarkFailedRetry applies the shared back-off/classification policy.
func (s *Service) MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	requeued, err:= s.repo.MarkFailedRetry(ctx, id, errorMessage, errorContext)
	if err != nil {
 return false, fmt.Errorf("failed to mark document task failed/retry: %w", err)
	}
	if requeued {
 slog.WarnContext(ctx, "document task requeued for retry", "task_id", id, "error", errorMessage)
	} else {
 slog.ErrorContext(ctx, "document task failed permanently", "task_id", id, "error", errorMessage)
	}
	return requeued, nil
}

// RecoverStuck resets tasks stuck in_progress beyond domain.StuckThreshold.
func (s *Service) RecoverStuck(ctx context.Context) (int, error) {
	count, err:= s.repo.RecoverStuck(ctx)
	if err != nil {
 return 0, fmt.Errorf("failed to recover stuck document tasks: %w", err)
	}
	if count > 0 {
 slog.WarnContext(ctx, "recovered stuck document tasks", "count", count)
	}
	return count, nil
}

// ManualRetry moves a failed or stuck task back to pending.
func (s *Service) ManualRetry(ctx context.Context, id string, resetAttempts bool) error {
	if err:= s.repo.ManualRetry(ctx, id, resetAttempts); err != nil {
 return fmt.Errorf("failed to retry document task: %w", err)
	}
	slog.InfoContext(ctx, "document task manually retried", "task_id", id, "reset_attempts", resetAttempts)
	return nil
}

// Cancel deletes a pending task.
func (s *Service) Cancel(ctx context.Context, id string) (bool, error) {
	cancelled, err:= s.repo.Cancel(ctx, id)
	if err != nil {
 return false, fmt.Errorf("failed to cancel document task: %w", err)
	}
	return cancelled, nil
}
