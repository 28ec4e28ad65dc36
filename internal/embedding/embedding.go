// Package embedding defines the embedding-model external collaborator:
// vectorizing chunk text for similarity search. The transport to the
// actual model is out of scope; callers inject a concrete implementation.
package embedding

import "context"

// Service embeds text into a fixed-dimensional vector. An error from Embed
// is treated by the document-processing pipeline as non-fatal: the chunk is
// still persisted, just without a vector, and remains full-text searchable
// until a later re-embed.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
