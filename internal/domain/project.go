package domain

import "time"

// ProjectStatus is a closed set of lifecycle states a project can carry;
// filters in hybrid search match against this set.
type ProjectStatus string

const (
	ProjectStatusPlanning ProjectStatus = "PLANNING"
	ProjectStatusActive ProjectStatus = "ACTIVE"
	ProjectStatusOnHold ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusArchived ProjectStatus = "ARCHIVED"
)

// Project is a searchable entity with a precomputed full-text vector.
type Project struct {
	ID string
	Name string
	Status ProjectStatus
	OrganizationID *string
	OwnerID *string
	StartDate *time.Time
	TagIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document belongs to a Project and also carries a full-text vector over
// its extracted text.
type Document struct {
	ID string
	ProjectID string
	Filename string
	StoragePath string
	MimeType string

	ExtractedText *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentChunk is one piece of a Document's extracted text, optionally
// embedded for vector search. Invariant: embedding absent iff not yet
// embedded.
type DocumentChunk struct {
	ID string
	DocumentID string
	ProjectID string
	Content string
	ChunkIndex int
	Embedding []float32 // nil until embedded
}
