package search

import (
	"context"

	"github.com/novuscrm/syncwork/internal/domain"
)

// RankedID is one row of a ranking query: a project id at a 1-indexed rank
// position, lower is better.
type RankedID struct {
	ProjectID string
	Rank int
}

// Repository is the storage contract hybrid search runs against.
type Repository interface {
	// ListFiltered runs the filter-only path (step 1): no query text,
	// optional sort, standard DB pagination. Returns the page and the total
	// matching count.
	ListFiltered(ctx context.Context, filter Filter, sortBy string, limit, offset int) ([]*domain.Project, int, error)

	// RankProjectsByText computes rankP: ts_rank of the query against each
	// project's own search_vector, restricted to filter, best rank first.
	RankProjectsByText(ctx context.Context, query string, filter Filter) ([]RankedID, error)

	// RankDocumentsByText computes rankD: sum of ts_rank over each project's
	// documents, restricted to filter, best rank first.
	RankDocumentsByText(ctx context.Context, query string, filter Filter) ([]RankedID, error)

	// HasEmbeddedChunks reports whether any document chunk within filter's
	// scope has a non-null embedding, letting the caller skip the
	// embedding-model call entirely when false.
	HasEmbeddedChunks(ctx context.Context, filter Filter) (bool, error)

	// RankByVectorSimilarity computes rankV: nearest chunk per project by
	// cosine distance to the query embedding, restricted to filter, closest
	// first.
	RankByVectorSimilarity(ctx context.Context, queryEmbedding []float32, filter Filter) ([]RankedID, error)

	// GetProjectsByIDs loads projects by id for the relevance-sorted path,
	// where the caller re-applies the RRF order itself.
	GetProjectsByIDs(ctx context.Context, ids []string) (map[string]*domain.Project, error)

	// ListByIDsSorted loads projects restricted to ids, sorted and paginated
	// by the database (step 5, sort_by != relevance).
	ListByIDsSorted(ctx context.Context, ids []string, sortBy string, limit, offset int) ([]*domain.Project, error)
}
