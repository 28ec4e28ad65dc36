package handlers

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
)

// Team is a local group whose membership is reconciled against an external
// directory group.
type Team struct {
	ID string
	DirectoryGroupID string
}

// TeamRepository lists teams under directory-group management.
type TeamRepository interface {
	ListManaged(ctx context.Context) ([]Team, error)
	SetMembers(ctx context.Context, teamID string, userIDs []string) error
}

// DirectoryClient resolves a directory group's current membership.
type DirectoryClient interface {
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// DirectoryGroupSyncHandler reconciles each team's membership against its
// directory group.
type DirectoryGroupSyncHandler struct {
	teams TeamRepository
	directory DirectoryClient
}

// NewDirectoryGroupSyncHandler builds a DirectoryGroupSyncHandler.
func NewDirectoryGroupSyncHandler(teams TeamRepository, directory DirectoryClient) *DirectoryGroupSyncHandler {
	return &DirectoryGroupSyncHandler{teams: teams, directory: directory}
}

// Handle reconciles every managed team, tolerating individual lookup
// failures so one broken directory group doesn't abort the rest.
func (h *DirectoryGroupSyncHandler) Handle(ctx context.Context, _ *domain.Job) (map[string]any, error) {
	teams, err:= h.teams.ListManaged(ctx)
	if err != nil {
 return nil, fmt.Errorf("failed to list managed teams: %w", err)
	}

	reconciled, failed:= 0, 0
	for _, team:= range teams {
 members, err:= h.directory.GroupMembers(ctx, team.DirectoryGroupID)
 if err != nil {
 failed++
 continue
 }
 if err:= h.teams.SetMembers(ctx, team.ID, members); err != nil {
 failed++
 continue
 }
 reconciled++
	}

	return map[string]any{"reconciled": reconciled, "failed": failed, "total": len(teams)}, nil
}
