package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/novuscrm/syncwork/internal/docqueue/chunk"
	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/embedding"
)

// UnchunkedDocumentRepository finds documents that have extracted text but
// no chunks yet, and persists the chunks produced for them.
type UnchunkedDocumentRepository interface {
	ListUnchunked(ctx context.Context, limit int) ([]*domain.Document, error)
	ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.DocumentChunk) error
}

// EmbeddingGenerationHandler chunks and embeds every document that has
// extracted text but no chunks yet.
type EmbeddingGenerationHandler struct {
	documents UnchunkedDocumentRepository
	embedder embedding.Service
	batchSize int
}

// NewEmbeddingGenerationHandler builds an EmbeddingGenerationHandler.
func NewEmbeddingGenerationHandler(documents UnchunkedDocumentRepository, embedder embedding.Service, batchSize int) *EmbeddingGenerationHandler {
	if batchSize <= 0 {
 batchSize = domain.DefaultGetPendingLimit
	}
	return &EmbeddingGenerationHandler{documents: documents, embedder: embedder, batchSize: batchSize}
}

// Handle chunks and embeds one batch of unchunked documents. A single
// document's embedding failures are persisted as vector-less chunks
// (step 5) rather than failing the whole batch.
func (h *EmbeddingGenerationHandler) Handle(ctx context.Context, _ *domain.Job) (map[string]any, error) {
	docs, err:= h.documents.ListUnchunked(ctx, h.batchSize)
	if err != nil {
 return nil, fmt.Errorf("failed to list unchunked documents: %w", err)
	}

	embedded:= 0
	for _, doc:= range docs {
 if doc.ExtractedText == nil {
 continue
 }
 pieces:= chunk.Split(*doc.ExtractedText)
 chunks:= make([]*domain.DocumentChunk, 0, len(pieces))
 for i, content:= range pieces {
 vector, err:= h.embedder.Embed(ctx, content)
 if err != nil {
 slog.WarnContext(ctx, "embedding failed, persisting chunk without vector", "document_id", doc.ID, "chunk_index", i, "error", err)
 vector = nil
 }
 chunks = append(chunks, &domain.DocumentChunk{
 ID: uuid.NewString(),
 DocumentID: doc.ID,
 ProjectID: doc.ProjectID,
 Content: content,
 ChunkIndex: i,
 Embedding: vector,
 })
 }
 if err:= h.documents.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
 return nil, fmt.Errorf("failed to persist chunks for document %s: %w", doc.ID, err)
 }
 embedded++
	}

	return map[string]any{"documents_embedded": embedded}, nil
}
