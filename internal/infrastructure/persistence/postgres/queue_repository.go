package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/novuscrm/syncwork/internal/domain"
)

// compile-time check that Store satisfies the generic job queue's
// repository contract.
var _ interface {
	FindDuplicate(ctx context.Context, jobType domain.JobType, entityType, entityID *string) (*domain.Job, error)
	Insert(ctx context.Context, job *domain.Job) (*domain.Job, error)
} = (*Store)(nil)

func (s *Store) FindDuplicate(ctx context.Context, jobType domain.JobType, entityType, entityID *string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE job_type = $1
		  AND status IN ('PENDING', 'IN_PROGRESS')
		  AND entity_type IS NOT DISTINCT FROM $2
		  AND entity_id IS NOT DISTINCT FROM $3
		LIMIT 1`, jobType, entityType, entityID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

func (s *Store) Insert(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	payload, err := marshalNullable(job.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (job_type, status, entity_type, entity_id, payload, priority, max_attempts, next_retry, created_by)
		VALUES ($1, 'PENDING', $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+jobColumns,
		job.JobType, job.EntityType, job.EntityID, payload, job.Priority, job.MaxAttempts, job.NextRetry, job.CreatedBy)
	return scanJob(row)
}

func (s *Store) GetPending(ctx context.Context, jobType *domain.JobType, limit int) ([]*domain.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = 'PENDING'
		  AND next_retry <= now()
		  AND ($1::text IS NULL OR job_type = $1)
		ORDER BY priority DESC, created_at ASC
		LIMIT $2`, jobType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

// ClaimPending is the claim-barrier conditional UPDATE: only a row still
// pending transitions, so two overlapping ticks never both claim it.
func (s *Store) ClaimPending(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'IN_PROGRESS', started_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkCompleted(ctx context.Context, id string, result map[string]any) error {
	payload, err := marshalNullable(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'COMPLETED', completed_at = now(), next_retry = NULL,
		    result = COALESCE($2, result), updated_at = now()
		WHERE id = $1`, id, payload)
	return err
}

// MarkFailedRetry mirrors the in-memory fake's two-step shape (read current
// attempts/max_attempts, classify in Go via domain.IsRetryableMessage and
// domain.NextRetryDelay, then write) rather than re-deriving the backoff
// schedule inside SQL, so the persisted behavior can never drift from the
// classification logic tested in internal/domain/backoff_test.go. Callers
// that need this to be atomic with the read that decided to fail the job
// should invoke it inside Store.Atomic.
func (s *Store) MarkFailedRetry(ctx context.Context, id, errorMessage string, errorContext map[string]any) (bool, error) {
	var attempts, maxAttempts int
	if err := s.pool.QueryRow(ctx, `SELECT attempts, max_attempts FROM jobs WHERE id = $1`, id).
		Scan(&attempts, &maxAttempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("failed to load job for retry classification: %w", err)
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
			UPDATE jobs
			SET attempts = $2, last_attempt = now(), error_message = $3,
			    error_context = COALESCE($4, error_context),
			    status = 'FAILED', next_retry = NULL, completed_at = now(), updated_at = now()
			WHERE id = $1`, id, attempts, msg, errCtx)
		return false, err
	}

	next := time.Now().UTC().Add(domain.NextRetryDelay(attempts))
	_, err = s.pool.Exec(ctx, `
		UPDATE jobs
		SET attempts = $2, last_attempt = now(), error_message = $3,
		    error_context = COALESCE($4, error_context),
		    status = 'PENDING', next_retry = $5, updated_at = now()
		WHERE id = $1`, id, attempts, msg, errCtx, next)
	return true, err
}

func (s *Store) RecoverStuck(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'PENDING', next_retry = now(), updated_at = now(),
		    error_message = 'recovered from stuck in_progress state'
		WHERE status = 'IN_PROGRESS' AND started_at < now() - ($1 || ' seconds')::interval`,
		int(domain.StuckThreshold.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to recover stuck jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ManualRetry(ctx context.Context, id string, resetAttempts bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'PENDING', next_retry = now(), error_message = NULL, error_context = NULL,
		    completed_at = NULL, updated_at = now(),
		    attempts = CASE WHEN $2 THEN 0 ELSE attempts END
		WHERE id = $1`, id, resetAttempts)
	return err
}

func (s *Store) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const jobColumns = `id, job_type, status, entity_type, entity_id, payload, result, error_message,
	error_context, priority, attempts, max_attempts, next_retry, started_at, completed_at,
	last_attempt, created_by, created_at, updated_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	var payload, result, errCtx []byte
	if err := row.Scan(&j.ID, &j.JobType, &j.Status, &j.EntityType, &j.EntityID, &payload, &result,
		&j.ErrorMessage, &errCtx, &j.Priority, &j.Attempts, &j.MaxAttempts, &j.NextRetry, &j.StartedAt,
		&j.CompletedAt, &j.LastAttempt, &j.CreatedBy, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if j.Payload, err = unmarshalNullable(payload); err != nil {
		return nil, err
	}
	if j.Result, err = unmarshalNullable(result); err != nil {
		return nil, err
	}
	if j.ErrorContext, err = unmarshalNullable(errCtx); err != nil {
		return nil, err
	}
	return &j, nil
}

func marshalNullable(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalNullable(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jsonb column: %w", err)
	}
	return m, nil
}

