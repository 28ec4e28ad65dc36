package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/novuscrm/syncwork/internal/domain"
	"github.com/novuscrm/syncwork/internal/search"
)

// SearchStore adapts Store to search.Repository, running the filter and
// ranking queries hybrid search needs against projects/documents/
// document_chunks.
type SearchStore struct {
	*Store
}

func NewSearchStore(s *Store) *SearchStore {
	return &SearchStore{Store: s}
}

// filterClause builds the shared WHERE predicate for filter.Filter (
// step 2), returning the clause (without "WHERE") and its positional args
// starting at $1; callers append ranking-specific args after.
func filterClause(f search.Filter) (string, []any) {
	var clauses []string
	var args []any

	add:= func(expr string, value any) {
 args = append(args, value)
 clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}

	if len(f.Statuses) > 0 {
 add("status = ANY($%d)", f.Statuses)
	}
	if f.OrganizationID != nil {
 add("organization_id = $%d", *f.OrganizationID)
	}
	if f.OwnerID != nil {
 add("owner_id = $%d", *f.OwnerID)
	}
	if f.StartDateFrom != nil {
 add("start_date >= $%d", *f.StartDateFrom)
	}
	if f.StartDateTo != nil {
 add("start_date <= $%d", *f.StartDateTo)
	}
	if len(f.TagIDs) > 0 {
 add("tag_ids @> $%d", f.TagIDs)
	}

	if len(clauses) == 0 {
 return "true", args
	}
	return strings.Join(clauses, " AND "), args
}

func (s *SearchStore) ListFiltered(ctx context.Context, filter search.Filter, sortBy string, limit, offset int) ([]*domain.Project, int, error) {
	where, args:= filterClause(filter)

	var total int
	if err:= s.pool.QueryRow(ctx, `SELECT count(*) FROM projects WHERE `+where, args...).Scan(&total); err != nil {
 return nil, 0, fmt.Errorf("failed to count filtered projects: %w", err)
	}

	order:= orderClause(sortBy)
	limitArg:= len(args) + 1
	offsetArg:= len(args) + 2
	rows, err:= s.pool.Query(ctx, `
 SELECT `+projectColumns+` FROM projects WHERE `+where+`
 ORDER BY `+order+`
 LIMIT $`+fmt.Sprint(limitArg)+` OFFSET $`+fmt.Sprint(offsetArg),
 append(append([]any{}, args...), limit, offset)...)
	if err != nil {
 return nil, 0, fmt.Errorf("failed to list filtered projects: %w", err)
	}
	defer rows.Close()

	projects, err:= scanProjects(rows)
	return projects, total, err
}

func orderClause(sortBy string) string {
	switch sortBy {
	case "name":
 return "name ASC"
	case "start_date":
 return "start_date ASC NULLS LAST"
	case "updated_at":
 return "updated_at DESC"
	default:
 return "created_at DESC"
	}
}

func (s *SearchStore) RankProjectsByText(ctx context.Context, query string, filter search.Filter) ([]search.RankedID, error) {
	where, args:= filterClause(filter)
	queryArg:= len(args) + 1
	args = append(args, query)

	rows, err:= s.pool.Query(ctx, `
 SELECT id, row_number() OVER (ORDER BY ts_rank(search_vector, plainto_tsquery('english', $`+fmt.Sprint(queryArg)+`)) DESC)
 FROM projects
 WHERE `+where+` AND search_vector @@ plainto_tsquery('english', $`+fmt.Sprint(queryArg)+`)`,
 args...)
	if err != nil {
 return nil, fmt.Errorf("failed to rank projects by text: %w", err)
	}
	defer rows.Close()
	return scanRanked(rows)
}

func (s *SearchStore) RankDocumentsByText(ctx context.Context, query string, filter search.Filter) ([]search.RankedID, error) {
	where, args:= filterClause(filter)
	queryArg:= len(args) + 1
	args = append(args, query)

	rows, err:= s.pool.Query(ctx, `
 SELECT d.project_id, row_number() OVER (ORDER BY sum(ts_rank(d.search_vector, plainto_tsquery('english', $`+fmt.Sprint(queryArg)+`))) DESC)
 FROM documents d
 JOIN projects p ON p.id = d.project_id
 WHERE `+prefixedWhere(where, "p.")+`
 AND d.search_vector @@ plainto_tsquery('english', $`+fmt.Sprint(queryArg)+`)
 GROUP BY d.project_id`,
 args...)
	if err != nil {
 return nil, fmt.Errorf("failed to rank documents by text: %w", err)
	}
	defer rows.Close()
	return scanRanked(rows)
}

func (s *SearchStore) HasEmbeddedChunks(ctx context.Context, filter search.Filter) (bool, error) {
	where, args:= filterClause(filter)
	var exists bool
	err:= s.pool.QueryRow(ctx, `
 SELECT EXISTS (
 SELECT 1 FROM document_chunks c
 JOIN projects p ON p.id = c.project_id
 WHERE `+prefixedWhere(where, "p.")+` AND c.embedding IS NOT NULL
 )`, args...).Scan(&exists)
	if err != nil {
 return false, fmt.Errorf("failed to check for embedded chunks: %w", err)
	}
	return exists, nil
}

func (s *SearchStore) RankByVectorSimilarity(ctx context.Context, queryEmbedding []float32, filter search.Filter) ([]search.RankedID, error) {
	where, args:= filterClause(filter)
	vectorArg:= len(args) + 1
	args = append(args, pgvector.NewVector(queryEmbedding))

	rows, err:= s.pool.Query(ctx, `
 WITH nearest AS (
 SELECT DISTINCT ON (c.project_id) c.project_id, c.embedding <=> $`+fmt.Sprint(vectorArg)+` AS distance
 FROM document_chunks c
 JOIN projects p ON p.id = c.project_id
 WHERE `+prefixedWhere(where, "p.")+` AND c.embedding IS NOT NULL
 ORDER BY c.project_id, distance ASC
 )
 SELECT project_id, row_number() OVER (ORDER BY distance ASC)
 FROM nearest
 ORDER BY distance ASC`, args...)
	if err != nil {
 return nil, fmt.Errorf("failed to rank chunks by vector similarity: %w", err)
	}
	defer rows.Close()
	return scanRanked(rows)
}

func (s *SearchStore) GetProjectsByIDs(ctx context.Context, ids []string) (map[string]*domain.Project, error) {
	if len(ids) == 0 {
 return map[string]*domain.Project{}, nil
	}
	rows, err:= s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ANY($1)`, ids)
	if err != nil {
 return nil, fmt.Errorf("failed to load projects by id: %w", err)
	}
	defer rows.Close()

	projects, err:= scanProjects(rows)
	if err != nil {
 return nil, err
	}
	byID:= make(map[string]*domain.Project, len(projects))
	for _, p:= range projects {
 byID[p.ID] = p
	}
	return byID, nil
}

func (s *SearchStore) ListByIDsSorted(ctx context.Context, ids []string, sortBy string, limit, offset int) ([]*domain.Project, error) {
	if len(ids) == 0 {
 return nil, nil
	}
	rows, err:= s.pool.Query(ctx, `
 SELECT `+projectColumns+` FROM projects WHERE id = ANY($1)
 ORDER BY `+orderClause(sortBy)+`
 LIMIT $2 OFFSET $3`, ids, limit, offset)
	if err != nil {
 return nil, fmt.Errorf("failed to list sorted projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// prefixedWhere rewrites bare column references in a filterClause result to
// the given table alias; filterClause's columns (status, organization_id,
// owner_id, start_date, tag_ids) only ever appear on projects, so a plain
// string prefix is safe here.
func prefixedWhere(where, prefix string) string {
	if where == "true" {
 return where
	}
	for _, col:= range []string{"status", "organization_id", "owner_id", "start_date", "tag_ids"} {
 where = strings.ReplaceAll(where, col+" ", prefix+col+" ")
	}
	return where
}

const projectColumns = `id, name, status, organization_id, owner_id, start_date, tag_ids, created_at, updated_at`

func scanProjects(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*domain.Project, error) {
	var projects []*domain.Project
	for rows.Next() {
 var p domain.Project
 if err:= rows.Scan(&p.ID, &p.Name, &p.Status, &p.OrganizationID, &p.OwnerID, &p.StartDate,
 &p.TagIDs, &p.CreatedAt, &p.UpdatedAt); err != nil {
 return nil, err
 }
 projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func scanRanked(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]search.RankedID, error) {
	var ranked []search.RankedID
	for rows.Next() {
 var r search.RankedID
 if err:= rows.Scan(&r.ProjectID, &r.Rank); err != nil {
 return nil, err
 }
 ranked = append(ranked, r)
	}
	return ranked, rows.Err()
}
