// Package tags implements the undirected tag-synonym graph: closure lookup
// and the merge_tags administrative operation.
package tags

import "context"

// Service computes synonym closures and performs tag merges over a
// Repository.
type Service struct {
	repo Repository
}

// NewService builds a Service over the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetSynonyms returns the transitive closure of tagID's synonym edges,
// excluding tagID itself, via a cycle-safe BFS: a visited set ensures no
// tag is re-enqueued once seen, so the algorithm terminates even over a
// cyclic graph.
func (s *Service) GetSynonyms(ctx context.Context, tagID string) ([]string, error) {
	visited:= map[string]bool{tagID: true}
	queue:= []string{tagID}
	var closure []string

	for len(queue) > 0 {
 current:= queue[0]
 queue = queue[1:]

 neighbors, err:= s.repo.Neighbors(ctx, current)
 if err != nil {
 return nil, err
 }

 for _, n:= range neighbors {
 if visited[n] {
 continue
 }
 visited[n] = true
 closure = append(closure, n)
 queue = append(queue, n)
 }
	}

	return closure, nil
}

// ExpandResult is the return shape of ExpandTagIdsWithSynonyms.
type ExpandResult struct {
	// Expanded is the union of the original ids and every synonym reached
	// from any of them.
	Expanded []string
	// PerOrigin maps each originally-requested id to the synonyms it
	// contributed (so callers can report which matches came from
	// expansion, e.g. search's synonym_matches metadata).
	PerOrigin map[string][]string
}

// ExpandTagIdsWithSynonyms computes the synonym closure of each id in ids
// and unions them into a single expanded set, while recording per-origin
// contributions.
func (s *Service) ExpandTagIdsWithSynonyms(ctx context.Context, ids []string) (*ExpandResult, error) {
	expandedSet:= make(map[string]bool, len(ids))
	for _, id:= range ids {
 expandedSet[id] = true
	}

	perOrigin:= make(map[string][]string, len(ids))
	for _, id:= range ids {
 synonyms, err:= s.GetSynonyms(ctx, id)
 if err != nil {
 return nil, err
 }
 perOrigin[id] = synonyms
 for _, syn:= range synonyms {
 expandedSet[syn] = true
 }
	}

	expanded:= make([]string, 0, len(expandedSet))
	for id:= range expandedSet {
 expanded = append(expanded, id)
	}

	return &ExpandResult{Expanded: expanded, PerOrigin: perOrigin}, nil
}
