// Package handlers implements the job-type-specific handlers the queue
// registry dispatches to. Each
// handler is a thin adapter between a domain.Job and a narrow collaborator
// interface, kept separate from internal/queue so the dispatcher itself
// never depends on any one handler's external systems.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/novuscrm/syncwork/internal/domain"
)

// JiraLink is a cached reference to an external Jira issue's status.
type JiraLink struct {
	ID string
	IssueKey string
	CachedAt time.Time
}

// JiraClient fetches live issue status from Jira.
type JiraClient interface {
	GetIssueStatus(ctx context.Context, issueKey string) (status string, err error)
}

// JiraLinkRepository stores cached Jira link statuses.
type JiraLinkRepository interface {
	ListStale(ctx context.Context, ttl time.Duration) ([]JiraLink, error)
	UpdateStatus(ctx context.Context, linkID, status string, refreshedAt time.Time) error
}

// JiraRefreshHandler refreshes cached Jira statuses whose cache age exceeds
// a TTL.
type JiraRefreshHandler struct {
	links JiraLinkRepository
	client JiraClient
	ttl time.Duration
}

// NewJiraRefreshHandler builds a JiraRefreshHandler.
func NewJiraRefreshHandler(links JiraLinkRepository, client JiraClient, ttl time.Duration) *JiraRefreshHandler {
	return &JiraRefreshHandler{links: links, client: client, ttl: ttl}
}

// Handle refreshes every stale link, tolerating individual failures so one
// broken issue key doesn't fail the whole refresh pass.
func (h *JiraRefreshHandler) Handle(ctx context.Context, _ *domain.Job) (map[string]any, error) {
	stale, err:= h.links.ListStale(ctx, h.ttl)
	if err != nil {
 return nil, fmt.Errorf("failed to list stale jira links: %w", err)
	}

	refreshed, failed:= 0, 0
	for _, link:= range stale {
 status, err:= h.client.GetIssueStatus(ctx, link.IssueKey)
 if err != nil {
 failed++
 continue
 }
 if err:= h.links.UpdateStatus(ctx, link.ID, status, time.Now().UTC()); err != nil {
 failed++
 continue
 }
 refreshed++
	}

	return map[string]any{"refreshed": refreshed, "failed": failed, "total": len(stale)}, nil
}
