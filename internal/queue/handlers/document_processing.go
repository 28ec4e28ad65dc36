package handlers

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/docqueue"
	"github.com/novuscrm/syncwork/internal/domain"
)

// DocumentProcessingHandler bridges a generic DOCUMENT_PROCESSING job
// (enqueued on file upload) into the specialized document-processing queue
// that actually runs the extract/chunk/embed pipeline.
type DocumentProcessingHandler struct {
	documents *docqueue.Service
}

// NewDocumentProcessingHandler builds a DocumentProcessingHandler.
func NewDocumentProcessingHandler(documents *docqueue.Service) *DocumentProcessingHandler {
	return &DocumentProcessingHandler{documents: documents}
}

// Handle enqueues the job's target document onto the document-processing
// queue, deduplicated per document_id the same way the queue it bridges
// into already deduplicates.
func (h *DocumentProcessingHandler) Handle(ctx context.Context, job *domain.Job) (map[string]any, error) {
	if job.EntityID == nil {
 return nil, fmt.Errorf("%w: document processing job missing entity_id", domain.ErrInvalidArgument)
	}

	task, err:= h.documents.Enqueue(ctx, *job.EntityID, domain.DocumentOperationProcess, job.Priority, true)
	if err != nil {
 return nil, fmt.Errorf("failed to enqueue document task: %w", err)
	}

	return map[string]any{"document_task_id": task.ID}, nil
}
