package tags

import "context"

// Repository is the storage contract for the synonym graph and
// tag-to-project associations.
type Repository interface {
	// Neighbors returns the set of tag ids directly linked to tagID by a
	// synonym edge in either direction.
	Neighbors(ctx context.Context, tagID string) ([]string, error)

	// TransferSynonyms re-points every synonym edge touching source to
	// target instead, skipping any edge that would duplicate one target
	// already has or that would create a self-edge. Used by merge_tags.
	TransferSynonyms(ctx context.Context, source, target string) error

	// ReassignProjectAssociations moves every project association from
	// source to target, skipping projects target is already tagged with.
	// Returns the count of projects actually updated.
	ReassignProjectAssociations(ctx context.Context, source, target string) (int, error)

	// DeleteTag removes a tag row (used by merge_tags after reassignment).
	DeleteTag(ctx context.Context, tagID string) error
}
