package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/novuscrm/syncwork/internal/domain"
)

// DocumentQueueStore adapts Store to docqueue.Repository. A separate type is
// needed (rather than Store satisfying the interface directly) because
// docqueue.Repository and queue.Repository both declare methods named
// FindDuplicate/Insert/GetPending/... with different signatures; Store's
// own methods carry a DocumentTask suffix to avoid that clash, and this
// adapter exposes them under the names docqueue.Repository expects.
type DocumentQueueStore struct {
	*Store
}

// NewDocumentQueueStore wraps a Store for use as a docqueue.Repository.
func NewDocumentQueueStore(s *Store) *DocumentQueueStore {
	return &DocumentQueueStore{Store: s}
}

func (s *DocumentQueueStore) FindDuplicate(ctx context.Context, documentID string) (*domain.DocumentTask, error) {
	return s.Store.FindDuplicateDocumentTask(ctx, documentID)
}

func (s *DocumentQueueStore) Insert(ctx context.Context, task *domain.DocumentTask) (*domain.DocumentTask, error) {
	return s.Store.InsertDocumentTask(ctx, task)
}

func (s *DocumentQueueStore) GetPending(ctx context.Context, limit int) ([]*domain.DocumentTask, error) {
	return s.Store.GetPendingDocumentTasks(ctx, limit)
}

func (s *DocumentQueueStore) Get(ctx context.Context, id string) (*domain.DocumentTask, error) {
	return s.Store.GetDocumentTask(ctx, id)
}

func (s *DocumentQueueStore) ClaimPending(ctx context.Context, id string) (bool, error) {
	return s.Store.ClaimPendingDocumentTask(ctx, id)
}

func (s *DocumentQueueStore) MarkCompleted(ctx context.Context, id string, result map[string]any) error {
	return s.Store.MarkDocumentTaskCompleted(ctx, id, result)
}

func (s *DocumentQueueStore) MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	return s.Store.MarkDocumentTaskFailedRetry(ctx, id, errorMessage, errorContext)
}

func (s *DocumentQueueStore) RecoverStuck(ctx context.Context) (int, error) {
	return s.Store.RecoverStuckDocumentTasks(ctx)
}

func (s *DocumentQueueStore) ManualRetry(ctx context.Context, id string, resetAttempts bool) error {
	return s.Store.ManualRetryDocumentTask(ctx, id, resetAttempts)
}

func (s *DocumentQueueStore) Cancel(ctx context.Context, id string) (bool, error) {
	return s.Store.CancelDocumentTask(ctx, id)
}

func (s *Store) FindDuplicateDocumentTask(ctx context.Context, documentID string) (*domain.DocumentTask, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM document_tasks
		WHERE document_id = $1 AND status IN ('PENDING', 'IN_PROGRESS')
		LIMIT 1`, documentID)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (s *Store) InsertDocumentTask(ctx context.Context, task *domain.DocumentTask) (*domain.DocumentTask, error) {
	payload, err := marshalNullable(task.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO document_tasks (document_id, operation, status, payload, priority, max_attempts, next_retry)
		VALUES ($1, $2, 'PENDING', $3, $4, $5, $6)
		RETURNING `+taskColumns,
		task.DocumentID, task.Operation, payload, task.Priority, task.MaxAttempts, task.NextRetry)
	return scanTask(row)
}

func (s *Store) GetPendingDocumentTasks(ctx context.Context, limit int) ([]*domain.DocumentTask, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM document_tasks
		WHERE status = 'PENDING' AND next_retry <= now()
		ORDER BY priority DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending document tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.DocumentTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) GetDocumentTask(ctx context.Context, id string) (*domain.DocumentTask, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM document_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return task, err
}

func (s *Store) ClaimPendingDocumentTask(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE document_tasks SET status = 'IN_PROGRESS', started_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim document task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkDocumentTaskCompleted(ctx context.Context, id string, result map[string]any) error {
	payload, err := marshalNullable(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE document_tasks
		SET status = 'COMPLETED', completed_at = now(), next_retry = NULL,
		    result = COALESCE($2, result), updated_at = now()
		WHERE id = $1`, id, payload)
	return err
}

func (s *Store) MarkDocumentTaskFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	var attempts, maxAttempts int
	if err := s.pool.QueryRow(ctx, `SELECT attempts, max_attempts FROM document_tasks WHERE id = $1`, id).
		Scan(&attempts, &maxAttempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("failed to load document task for retry classification: %w", err)
	}

	msg := domain.TruncateErrorMessage(errorMessage)
	errCtx, err := marshalNullable(errorContext)
	if err != nil {
		return false, fmt.Errorf("failed to marshal error context: %w", err)
	}

	attempts++
	requeue := domain.IsRetryableMessage(errorMessage) && attempts < maxAttempts

	if !requeue {
		_, err := s.pool.Exec(ctx, `
			UPDATE document_tasks
			SET attempts = $2, last_attempt = now(), error_message = $3,
			    error_context = COALESCE($4, error_context),
			    status = 'FAILED', next_retry = NULL, completed_at = now(), updated_at = now()
			WHERE id = $1`, id, attempts, msg, errCtx)
		return false, err
	}

	next := time.Now().UTC().Add(domain.NextRetryDelay(attempts))
	_, err = s.pool.Exec(ctx, `
		UPDATE document_tasks
		SET attempts = $2, last_attempt = now(), error_message = $3,
		    error_context = COALESCE($4, error_context),
		    status = 'PENDING', next_retry = $5, updated_at = now()
		WHERE id = $1`, id, attempts, msg, errCtx, next)
	return true, err
}

func (s *Store) RecoverStuckDocumentTasks(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE document_tasks
		SET status = 'PENDING', next_retry = now(), updated_at = now(),
		    error_message = 'recovered from stuck in_progress state'
		WHERE status = 'IN_PROGRESS' AND started_at < now() - ($1 || ' seconds')::interval`,
		int(domain.StuckThreshold.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to recover stuck document tasks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ManualRetryDocumentTask(ctx context.Context, id string, resetAttempts bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE document_tasks
		SET status = 'PENDING', next_retry = now(), error_message = NULL, error_context = NULL,
		    completed_at = NULL, updated_at = now(),
		    attempts = CASE WHEN $2 THEN 0 ELSE attempts END
		WHERE id = $1`, id, resetAttempts)
	return err
}

func (s *Store) CancelDocumentTask(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM document_tasks WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel document task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListUnchunked finds documents that have extracted text but no chunks yet,
// for handlers.EmbeddingGenerationHandler.
func (s *Store) ListUnchunked(ctx context.Context, limit int) ([]*domain.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.project_id, d.filename, d.storage_path, d.mime_type, d.extracted_text, d.created_at, d.updated_at
		FROM documents d
		WHERE d.extracted_text IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM document_chunks c WHERE c.document_id = d.id)
		ORDER BY d.updated_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unchunked documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.StoragePath, &d.MimeType,
			&d.ExtractedText, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// GetDocument loads a document for the processing pipeline.
func (s *Store) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, filename, storage_path, mime_type, extracted_text, created_at, updated_at
		FROM documents WHERE id = $1`, documentID)

	var d domain.Document
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.StoragePath, &d.MimeType,
		&d.ExtractedText, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &d, nil
}

// SaveExtractedText persists step 2 of the pipeline and refreshes the
// document's full-text search vector in the same statement.
func (s *Store) SaveExtractedText(ctx context.Context, documentID, text string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET extracted_text = $2,
		    search_vector = to_tsvector('english', coalesce($2, '')),
		    updated_at = now()
		WHERE id = $1`, documentID, text)
	return err
}

// ReplaceChunks deletes any existing chunks for the document and inserts the
// given set, matching the pipeline's "chunk + embed" step being idempotent
// on reprocess.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.DocumentChunk) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to clear existing chunks: %w", err)
	}

	for _, c := range chunks {
		var embedding *pgvector.Vector
		if c.Embedding != nil {
			v := pgvector.NewVector(c.Embedding)
			embedding = &v
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO document_chunks (document_id, project_id, content, chunk_index, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			documentID, c.ProjectID, c.Content, c.ChunkIndex, embedding); err != nil {
			return fmt.Errorf("failed to insert document chunk %d: %w", c.ChunkIndex, err)
		}
	}
	return nil
}

const taskColumns = `id, document_id, operation, status, payload, result, error_message,
	error_context, priority, attempts, max_attempts, next_retry, started_at, completed_at,
	last_attempt, created_by, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.DocumentTask, error) {
	var t domain.DocumentTask
	var payload, result, errCtx []byte
	if err := row.Scan(&t.ID, &t.DocumentID, &t.Operation, &t.Status, &payload, &result,
		&t.ErrorMessage, &errCtx, &t.Priority, &t.Attempts, &t.MaxAttempts, &t.NextRetry, &t.StartedAt,
		&t.CompletedAt, &t.LastAttempt, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.Payload, err = unmarshalNullable(payload); err != nil {
		return nil, err
	}
	if t.Result, err = unmarshalNullable(result); err != nil {
		return nil, err
	}
	if t.ErrorContext, err = unmarshalNullable(errCtx); err != nil {
		return nil, err
	}
	return &t, nil
}
