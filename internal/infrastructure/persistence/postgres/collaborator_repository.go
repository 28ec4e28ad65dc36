package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/novuscrm/syncwork/internal/queue/handlers"
)

// CollaboratorStore adapts Store to the small repository interfaces the
// jira-refresh, directory-group-sync, and bulk-import handlers declare
// locally (handlers.JiraLinkRepository, handlers.TeamRepository,
// handlers.ProjectCreator). None of the three share a method name, so one
// adapter type can implement all of them without the suffixing trick the
// job/document-task stores need.
type CollaboratorStore struct {
	*Store
}

// NewCollaboratorStore wraps a Store for use by the jira-refresh,
// directory-group-sync, and bulk-import handlers.
func NewCollaboratorStore(s *Store) *CollaboratorStore {
	return &CollaboratorStore{Store: s}
}

func (s *CollaboratorStore) ListStale(ctx context.Context, ttl time.Duration) ([]handlers.JiraLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, issue_key, refreshed_at FROM jira_links
		WHERE refreshed_at < now() - ($1 || ' seconds')::interval`, int(ttl.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to query stale jira links: %w", err)
	}
	defer rows.Close()

	var links []handlers.JiraLink
	for rows.Next() {
		var l handlers.JiraLink
		if err := rows.Scan(&l.ID, &l.IssueKey, &l.CachedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *CollaboratorStore) UpdateStatus(ctx context.Context, linkID, status string, refreshedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE jira_links SET status = $2, refreshed_at = $3 WHERE id = $1`,
		linkID, status, refreshedAt)
	return err
}

func (s *CollaboratorStore) ListManaged(ctx context.Context) ([]handlers.Team, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, directory_group_id FROM teams WHERE is_managed`)
	if err != nil {
		return nil, fmt.Errorf("failed to query managed teams: %w", err)
	}
	defer rows.Close()

	var teams []handlers.Team
	for rows.Next() {
		var t handlers.Team
		if err := rows.Scan(&t.ID, &t.DirectoryGroupID); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *CollaboratorStore) SetMembers(ctx context.Context, teamID string, userIDs []string) error {
	return s.Atomic(ctx, func(tx *Store) error {
		if _, err := tx.pool.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
			return fmt.Errorf("failed to clear team members: %w", err)
		}
		for _, userID := range userIDs {
			if _, err := tx.pool.Exec(ctx, `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID); err != nil {
				return fmt.Errorf("failed to insert team member: %w", err)
			}
		}
		return nil
	})
}

func (s *CollaboratorStore) CreateProject(ctx context.Context, row handlers.ImportRow) (string, error) {
	var id string
	status := row.Status
	if status == "" {
		status = "PLANNING"
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, status, organization_id, owner_id)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, ''))
		RETURNING id`, row.Name, status, row.OrganizationID, row.OwnerID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create project from import row: %w", err)
	}
	return id, nil
}
