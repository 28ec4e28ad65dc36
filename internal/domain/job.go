package domain

import "time"

// JobStatus is the lifecycle state of a Job or DocumentTask.
// Stored as the uppercase symbol name, per the enum storage convention.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed JobStatus = "FAILED"
)

// JobType identifies which handler a Job dispatches to. It is an open string
// type rather than a closed enum because the handler registry is extensible
// at startup; the constants below are the job types this system registers.
type JobType string

const (
	JobTypeJiraRefresh JobType = "JIRA_REFRESH"
	JobTypeBulkImport JobType = "BULK_IMPORT"
	JobTypeBoardSyncContacts JobType = "BOARD_SYNC_CONTACTS"
	JobTypeBoardSyncOrgs JobType = "BOARD_SYNC_ORGANIZATIONS"
	JobTypeDocumentProcessing JobType = "DOCUMENT_PROCESSING"
	JobTypeEmbeddingGeneration JobType = "EMBEDDING_GENERATION"
	JobTypeDirectoryGroupSync JobType = "DIRECTORY_GROUP_SYNC"
	JobTypeSyncEgressRetry JobType = "SYNC_EGRESS_RETRY"
)

const (
	// DefaultMaxAttempts is used when a caller does not specify max_attempts.
	DefaultMaxAttempts = 5

	// ErrorMessageMaxLen is the storage truncation limit for error_message.
	ErrorMessageMaxLen = 500

	// DefaultGetPendingLimit bounds a single processQueue fetch.
	DefaultGetPendingLimit = 50
)

// Job is a unit of background work persisted in the generic job queue.
type Job struct {
	ID string
	JobType JobType
	Status JobStatus
	EntityType *string
	EntityID *string

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

// EnqueueParams carries the optional arguments to Enqueue. Deduplicate is a
// pointer so the zero value (nil) can default to true, matching the Python
// service's `deduplicate: bool = True` default.
type EnqueueParams struct {
	JobType JobType
	EntityType *string
	EntityID *string
	Payload map[string]any
	Priority int
	MaxAttempts int
	CreatedBy *string
	Deduplicate *bool
}

// Normalize fills in defaults the way the job-service constructor does.
func (p *EnqueueParams) Normalize() {
	if p.MaxAttempts <= 0 {
 p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Deduplicate == nil {
 t:= true
 p.Deduplicate = &t
	}
}
