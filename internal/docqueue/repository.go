package docqueue

import (
	"context"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Repository is the storage contract for the document-processing queue
//, mirroring internal/queue's Repository shape but keyed by
// document_id instead of the (job_type, entity_type, entity_id) triple.
type Repository interface {
	// FindDuplicate returns the existing pending/in_progress task for a
	// document, if any.
	FindDuplicate(ctx context.Context, documentID string) (*domain.DocumentTask, error)

	Insert(ctx context.Context, task *domain.DocumentTask) (*domain.DocumentTask, error)
	GetPending(ctx context.Context, limit int) ([]*domain.DocumentTask, error)
	Get(ctx context.Context, id string) (*domain.DocumentTask, error)
	ClaimPending(ctx context.Context, id string) (bool, error)

	MarkCompleted(ctx context.Context, id string, result map[string]any) error
	MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (requeued bool, err error)
	RecoverStuck(ctx context.Context) (int, error)
	ManualRetry(ctx context.Context, id string, resetAttempts bool) error
	Cancel(ctx context.Context, id string) (bool, error)

	// GetDocument and the chunk/search-vector writes below back the
	// built-in pipeline (steps 1-5); they live on the same repository
	// because the pipeline is not pluggable like the generic queue's
	// handlers.
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)
	SaveExtractedText(ctx context.Context, documentID, text string) error
	ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.DocumentChunk) error
}
