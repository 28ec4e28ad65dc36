package handlers

import (
	"context"
	"fmt"

	"github.com/novuscrm/syncwork/internal/domain"
)

// ImportRow is one row of a bulk-import payload.
type ImportRow struct {
	Name string `json:"name"`
	Status string `json:"status"`
	OrganizationID string `json:"organization_id"`
	OwnerID string `json:"owner_id"`
	Attributes map[string]any `json:"attributes"`
}

// ImportRowResult is one row's outcome.
type ImportRowResult struct {
	Row int `json:"row"`
	Status string `json:"status"` // "created" | "failed"
	Error string `json:"error,omitempty"`
	ID string `json:"id,omitempty"`
}

// ProjectCreator materializes a validated import row into a project.
type ProjectCreator interface {
	CreateProject(ctx context.Context, row ImportRow) (id string, err error)
}

// BulkImportHandler validates and materializes import rows into projects,
// returning a per-row result regardless of individual failures.
type BulkImportHandler struct {
	projects ProjectCreator
}

// NewBulkImportHandler builds a BulkImportHandler.
func NewBulkImportHandler(projects ProjectCreator) *BulkImportHandler {
	return &BulkImportHandler{projects: projects}
}

// Handle reads rows from job.Payload["rows"] and materializes each.
func (h *BulkImportHandler) Handle(ctx context.Context, job *domain.Job) (map[string]any, error) {
	rawRows, _:= job.Payload["rows"].([]any)
	results:= make([]ImportRowResult, 0, len(rawRows))
	succeeded:= 0

	for i, raw:= range rawRows {
 row, err:= decodeImportRow(raw)
 if err != nil {
 results = append(results, ImportRowResult{Row: i, Status: "failed", Error: err.Error()})
 continue
 }

 id, err:= h.projects.CreateProject(ctx, row)
 if err != nil {
 results = append(results, ImportRowResult{Row: i, Status: "failed", Error: err.Error()})
 continue
 }
 results = append(results, ImportRowResult{Row: i, Status: "created", ID: id})
 succeeded++
	}

	return map[string]any{
 "total": len(rawRows),
 "succeeded": succeeded,
 "failed": len(rawRows) - succeeded,
 "results": results,
	}, nil
}

func decodeImportRow(raw any) (ImportRow, error) {
	m, ok:= raw.(map[string]any)
	if !ok {
 return ImportRow{}, fmt.Errorf("%w: import row is not an object", domain.ErrInvalidArgument)
	}
	name, _:= m["name"].(string)
	if name == "" {
 return ImportRow{}, fmt.Errorf("%w: import row missing name", domain.ErrInvalidArgument)
	}
	status, _:= m["status"].(string)
	orgID, _:= m["organization_id"].(string)
	ownerID, _:= m["owner_id"].(string)
	attrs, _:= m["attributes"].(map[string]any)
	return ImportRow{Name: name, Status: status, OrganizationID: orgID, OwnerID: ownerID, Attributes: attrs}, nil
}
