package docqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/docqueue/chunk"
	"github.com/novuscrm/syncwork/internal/embedding"
	"github.com/novuscrm/syncwork/internal/extractor"
	"github.com/novuscrm/syncwork/internal/storage"
)

// Pipeline is the single built-in document-processing behavior:
// "extract text, chunk, embed, store chunks, write search vector". Unlike
// the generic job queue, document tasks have no handler registry — this is
// the only processor.
type Pipeline struct {
	repo Repository
	storage storage.Adapter
	extractor extractor.Extractor
	embedder embedding.Service
}

// NewPipeline builds the document-processing pipeline over its external
// collaborators.
func NewPipeline(repo Repository, store storage.Adapter, ext extractor.Extractor, embedder embedding.Service) *Pipeline {
	return &Pipeline{repo: repo, storage: store, extractor: ext, embedder: embedder}
}

// Run executes the pipeline for one document task and returns a result map
// suitable for MarkCompleted, or an error the caller classifies via.
func (p *Pipeline) Run(ctx context.Context, task *domain.DocumentTask) (map[string]any, error) {
	doc, err:= p.repo.GetDocument(ctx, task.DocumentID)
	if err != nil {
 return nil, fmt.Errorf("failed to load document %s: %w", task.DocumentID, err)
	}

	content, err:= p.storage.Read(ctx, doc.StoragePath)
	if err != nil {
 if errors.Is(err, storage.ErrNotExist) {
 return nil, domain.ErrFileNotFoundInStorage
 }
 return nil, fmt.Errorf("failed to read document bytes: %w", err)
	}

	text, err:= p.extractor.Extract(ctx, content, doc.MimeType)
	if err != nil {
 return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	if err:= p.repo.SaveExtractedText(ctx, doc.ID, text); err != nil {
 return nil, fmt.Errorf("failed to persist extracted text: %w", err)
	}

	pieces:= chunk.Split(text)
	chunks:= make([]*domain.DocumentChunk, len(pieces))
	embedded:= 0

	for i, content:= range pieces {
 vector, embedErr:= p.embedder.Embed(ctx, content)
 if embedErr != nil {
 vector = nil // non-fatal: persisted without embedding, stays full-text searchable.
 } else {
 embedded++
 }
 chunks[i] = &domain.DocumentChunk{
 DocumentID: doc.ID,
 ProjectID: doc.ProjectID,
 Content: content,
 ChunkIndex: i,
 Embedding: vector,
 }
	}

	if err:= p.repo.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
 return nil, fmt.Errorf("failed to persist document chunks: %w", err)
	}

	return map[string]any{
 "chunks_created": len(chunks),
 "chunks_embedded": embedded,
 "extracted_length": len(text),
	}, nil
}
