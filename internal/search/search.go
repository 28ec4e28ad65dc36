// Package search implements hybrid project ranking: a fusion of
// full-text project matches, full-text document matches, and vector
// similarity over document chunks, combined by reciprocal rank fusion.
package search

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/embedding"
	"github.com/novuscrm/syncwork/internal/tags"
)

// fusionK is the RRF smoothing constant (step 4).
const fusionK = 60

// SortBy selects how the final page is ordered.
type SortBy string

const (
	SortByRelevance SortBy = "relevance"
	SortByName SortBy = "name"
	SortByStartDate SortBy = "start_date"
	SortByUpdatedAt SortBy = "updated_at"
)

// Filter is the set of predicates applied before ranking (step 2).
type Filter struct {
	Statuses []domain.ProjectStatus
	OrganizationID *string
	OwnerID *string
	StartDateFrom *string // ISO date, inclusive
	StartDateTo *string // ISO date, inclusive
	TagIDs []string
}

// Params is a single hybrid search request.
type Params struct {
	Query string
	Filter Filter
	IncludeDocuments bool
	ExpandSynonyms bool
	SortBy SortBy
	Limit int
	Offset int
}

// SynonymMetadata reports how the tag filter was expanded, returned
// alongside results when expansion ran (step 6).
type SynonymMetadata struct {
	OriginalTags []string
	ExpandedTags []string
	SynonymMatches map[string][]string
}

// Result is the response to a Search call.
type Result struct {
	Projects []*domain.Project
	Total int
	Synonyms *SynonymMetadata
}

// Service computes hybrid rankings over a Repository.
type Service struct {
	repo Repository
	tags *tags.Service
	embedder embedding.Service
}

// NewService builds a hybrid search Service.
func NewService(repo Repository, tagService *tags.Service, embedder embedding.Service) *Service {
	return &Service{repo: repo, tags: tagService, embedder: embedder}
}

// Search runs the algorithm: filter-only listing when the query is
// empty, otherwise concurrent rankP/rankD/rankV fused by RRF.
func (s *Service) Search(ctx context.Context, params Params) (*Result, error) {
	filter:= params.Filter
	var synonymMeta *SynonymMetadata

	if len(filter.TagIDs) > 0 && params.ExpandSynonyms {
 expanded, err:= s.tags.ExpandTagIdsWithSynonyms(ctx, filter.TagIDs)
 if err != nil {
 return nil, fmt.Errorf("failed to expand tag synonyms: %w", err)
 }
 synonymMeta = &SynonymMetadata{
 OriginalTags: filter.TagIDs,
 ExpandedTags: expanded.Expanded,
 SynonymMatches: expanded.PerOrigin,
 }
 filter.TagIDs = expanded.Expanded
	}

	if params.Query == "" {
 projects, total, err:= s.repo.ListFiltered(ctx, filter, string(params.SortBy), params.Limit, params.Offset)
 if err != nil {
 return nil, fmt.Errorf("failed to list filtered projects: %w", err)
 }
 return &Result{Projects: projects, Total: total, Synonyms: synonymMeta}, nil
	}

	rankings, err:= s.computeRankings(ctx, params.Query, filter, params.IncludeDocuments)
	if err != nil {
 return nil, err
	}

	fused:= fuse(rankings)
	if len(fused) == 0 {
 return &Result{Projects: nil, Total: 0, Synonyms: synonymMeta}, nil
	}

	ids:= make([]string, len(fused))
	for i, f:= range fused {
 ids[i] = f.projectID
	}

	var projects []*domain.Project
	if params.SortBy == "" || params.SortBy == SortByRelevance {
 page:= paginate(ids, params.Limit, params.Offset)
 byID, err:= s.repo.GetProjectsByIDs(ctx, page)
 if err != nil {
 return nil, fmt.Errorf("failed to load ranked projects: %w", err)
 }
 projects = orderByIDs(page, byID)
	} else {
 projects, err = s.repo.ListByIDsSorted(ctx, ids, string(params.SortBy), params.Limit, params.Offset)
 if err != nil {
 return nil, fmt.Errorf("failed to list sorted projects: %w", err)
 }
	}

	return &Result{Projects: projects, Total: len(ids), Synonyms: synonymMeta}, nil
}

type rankedSet struct {
	rankP []RankedID
	rankD []RankedID
	rankV []RankedID
}

// computeRankings runs rankP/rankD/rankV concurrently via errgroup,
// skipping rankD/rankV when the request excludes documents, and
// short-circuiting rankV entirely when no chunk in scope has been embedded
// yet (step 3) to avoid a needless embedding-model call.
func (s *Service) computeRankings(ctx context.Context, query string, filter Filter, includeDocuments bool) (*rankedSet, error) {
	var result rankedSet

	g, gctx:= errgroup.WithContext(ctx)

	g.Go(func() error {
 ranked, err:= s.repo.RankProjectsByText(gctx, query, filter)
 if err != nil {
 return fmt.Errorf("rankP failed: %w", err)
 }
 result.rankP = ranked
 return nil
	})

	if includeDocuments {
 g.Go(func() error {
 ranked, err:= s.repo.RankDocumentsByText(gctx, query, filter)
 if err != nil {
 return fmt.Errorf("rankD failed: %w", err)
 }
 result.rankD = ranked
 return nil
 })

 g.Go(func() error {
 hasEmbeddings, err:= s.repo.HasEmbeddedChunks(gctx, filter)
 if err != nil {
 return fmt.Errorf("rankV embedding-existence check failed: %w", err)
 }
 if !hasEmbeddings {
 return nil
 }

 vector, err:= s.embedder.Embed(gctx, query)
 if err != nil {
 return fmt.Errorf("failed to embed search query: %w", err)
 }

 ranked, err:= s.repo.RankByVectorSimilarity(gctx, vector, filter)
 if err != nil {
 return fmt.Errorf("rankV failed: %w", err)
 }
 result.rankV = ranked
 return nil
 })
	}

	if err := g.Wait(); err != nil {
 return nil, err
	}
	return &result, nil
}

type fusedProject struct {
	projectID string
	score float64
}

// fuse applies reciprocal rank fusion over the three rankings (step 4):
// score = Σ 1/(K+rank) across whichever rankings a project appears in.
func fuse(r *rankedSet) []fusedProject {
	scores:= make(map[string]float64)
	accumulate:= func(ranked []RankedID) {
 for _, entry:= range ranked {
 scores[entry.ProjectID] += 1.0 / float64(fusionK+entry.Rank)
 }
	}
	accumulate(r.rankP)
	accumulate(r.rankD)
	accumulate(r.rankV)

	fused:= make([]fusedProject, 0, len(scores))
	for id, score:= range scores {
 fused = append(fused, fusedProject{projectID: id, score: score})
	}
	sort.Slice(fused, func(i, j int) bool {
 if fused[i].score != fused[j].score {
 return fused[i].score > fused[j].score
 }
 return fused[i].projectID < fused[j].projectID // stable tie-break
	})
	return fused
}

func paginate(ids []string, limit, offset int) []string {
	if offset >= len(ids) {
 return nil
	}
	end:= offset + limit
	if limit <= 0 || end > len(ids) {
 end = len(ids)
	}
	return ids[offset:end]
}

func orderByIDs(ids []string, byID map[string]*domain.Project) []*domain.Project {
	projects:= make([]*domain.Project, 0, len(ids))
	for _, id:= range ids {
 if p, ok:= byID[id]; ok {
 projects = append(projects, p)
 }
	}
	return projects
}
