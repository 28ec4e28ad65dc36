package domain

import "time"

// DocumentOperation distinguishes a first processing pass from a forced
// reprocess (e.g. after a text-extractor upgrade).
type DocumentOperation string

const (
	DocumentOperationProcess DocumentOperation = "PROCESS"
	DocumentOperationReprocess DocumentOperation = "REPROCESS"
)

// DocumentTask mirrors Job's shape and lifecycle but lives in its own
// table and is always bound to a document; it has no handler registry
// because its processing behavior is the single built-in pipeline.
type DocumentTask struct {
	ID string
	DocumentID string
	Operation DocumentOperation
	Status JobStatus

	Payload map[string]any
	Result map[string]any

	ErrorMessage *string
	ErrorContext map[string]any

	Priority int
	Attempts int
	MaxAttempts int
	NextRetry *time.Time

	StartedAt *time.Time
	CompletedAt *time.Time
	LastAttempt *time.Time

	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
