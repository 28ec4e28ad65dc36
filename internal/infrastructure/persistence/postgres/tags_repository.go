package postgres

import (
	"context"
	"fmt"
)

// TagStore adapts Store to tags.Repository, backed by the tag_synonyms
// edge table and the tag_ids array column on projects.
type TagStore struct {
	*Store
}

func NewTagStore(s *Store) *TagStore {
	return &TagStore{Store: s}
}

func (s *TagStore) Neighbors(ctx context.Context, tagID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT synonym_tag_id FROM tag_synonyms WHERE tag_id = $1
		UNION
		SELECT tag_id FROM tag_synonyms WHERE synonym_tag_id = $1`, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag synonym neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, id)
	}
	return neighbors, rows.Err()
}

// TransferSynonyms re-points every edge touching source to target, dropping
// edges that would duplicate one target already has or create a self-edge.
func (s *TagStore) TransferSynonyms(ctx context.Context, source, target string) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE tag_synonyms SET tag_id = $2
		WHERE tag_id = $1
		  AND synonym_tag_id <> $2
		  AND NOT EXISTS (
		      SELECT 1 FROM tag_synonyms t2 WHERE t2.tag_id = $2 AND t2.synonym_tag_id = tag_synonyms.synonym_tag_id
		  )`, source, target); err != nil {
		return fmt.Errorf("failed to transfer outgoing synonym edges: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
		UPDATE tag_synonyms SET synonym_tag_id = $2
		WHERE synonym_tag_id = $1
		  AND tag_id <> $2
		  AND NOT EXISTS (
		      SELECT 1 FROM tag_synonyms t2 WHERE t2.synonym_tag_id = $2 AND t2.tag_id = tag_synonyms.tag_id
		  )`, source, target); err != nil {
		return fmt.Errorf("failed to transfer incoming synonym edges: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
		DELETE FROM tag_synonyms WHERE tag_id = $1 OR synonym_tag_id = $1`, source); err != nil {
		return fmt.Errorf("failed to clear remaining edges touching source tag: %w", err)
	}
	return nil
}

// ReassignProjectAssociations moves source's tag_ids membership to target
// for every project, skipping projects already tagged with target.
func (s *TagStore) ReassignProjectAssociations(ctx context.Context, source, target string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET tag_ids = array_append(array_remove(tag_ids, $1::uuid), $2::uuid), updated_at = now()
		WHERE tag_ids @> ARRAY[$1]::uuid[] AND NOT tag_ids @> ARRAY[$2]::uuid[]`,
		source, target)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign project tag associations: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET tag_ids = array_remove(tag_ids, $1::uuid), updated_at = now()
		WHERE tag_ids @> ARRAY[$1]::uuid[] AND tag_ids @> ARRAY[$2]::uuid[]`,
		source, target); err != nil {
		return 0, fmt.Errorf("failed to drop duplicate source tag from already-tagged projects: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func (s *TagStore) DeleteTag(ctx context.Context, tagID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, tagID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}
