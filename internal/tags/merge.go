package tags

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
)

// MergeTags transfers source's synonym edges to target, reassigns
// source's project associations to target, then deletes source. Returns
// the count of projects updated. source and target must differ.
func (s *Service) MergeTags(ctx context.Context, source, target string) (int, error) {
	if source == target {
		return 0, fmt.Errorf("%w: merge source and target must differ", domain.ErrInvalidArgument)
	}

	if err := s.repo.TransferSynonyms(ctx, source, target); err != nil {
		return 0, fmt.Errorf("failed to transfer synonyms: %w", err)
	}

	updated, err := s.repo.ReassignProjectAssociations(ctx, source, target)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign project associations: %w", err)
	}

	if err := s.repo.DeleteTag(ctx, source); err != nil {
		return 0, fmt.Errorf("failed to delete source tag: %w", err)
	}

	return updated, nil
}
