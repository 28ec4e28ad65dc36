package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novuscrm/syncwork/internal/domain"
)

type fakeUnchunkedRepo struct {
	docs        []*domain.Document
	savedChunks map[string][]*domain.DocumentChunk
}

func (f *fakeUnchunkedRepo) ListUnchunked(context.Context, int) ([]*domain.Document, error) {
	return f.docs, nil
}

func (f *fakeUnchunkedRepo) ReplaceChunks(_ context.Context, documentID string, chunks []*domain.DocumentChunk) error {
	if f.savedChunks == nil {
		f.savedChunks = map[string][]*domain.DocumentChunk{}
	}
	f.savedChunks[documentID] = chunks
	return nil
}

type fakeEmbedder struct{ failOn string }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding model unavailable")
	}
	return []float32{1, 2, 3}, nil
}

func TestEmbeddingGenerationHandler_ChunksAndEmbeds(t *testing.T) {
	text := "Short document body."
	repo := &fakeUnchunkedRepo{docs: []*domain.Document{
		{ID: "d1", ProjectID: "p1", ExtractedText: &text},
	}}
	handler := NewEmbeddingGenerationHandler(repo, &fakeEmbedder{}, 10)

	result, err := handler.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result["documents_embedded"])
	require.Len(t, repo.savedChunks["d1"], 1)
	assert.NotNil(t, repo.savedChunks["d1"][0].Embedding)
}

func TestEmbeddingGenerationHandler_FailedEmbedPersistsVectorlessChunk(t *testing.T) {
	text := "Short document body."
	repo := &fakeUnchunkedRepo{docs: []*domain.Document{
		{ID: "d1", ProjectID: "p1", ExtractedText: &text},
	}}
	handler := NewEmbeddingGenerationHandler(repo, &fakeEmbedder{failOn: "Short"}, 10)

	_, err := handler.Handle(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, repo.savedChunks["d1"], 1)
	assert.Nil(t, repo.savedChunks["d1"][0].Embedding)
}
