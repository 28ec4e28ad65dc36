// Package postgres implements every repository interface the application
// layer defines (queue, docqueue, sync, tags, search) against a single
// pgxpool.Pool, with hand-written pgx queries rather than sqlc-generated
// code.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL-backed implementation of every repository
// interface this system defines.
type Store struct {
	pool pgxQuerier
}

// pgxQuerier is the subset of *pgxpool.Pool / pgx.Tx used by the repository
// methods, so the same methods run inside or outside a transaction.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewStore wraps an open connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pool, e.g. for health checks.
func (s *Store) Pool() *pgxpool.Pool {
	p, _ := s.pool.(*pgxpool.Pool)
	return p
}

// Close closes the connection pool.
func (s *Store) Close() {
	if p := s.Pool(); p != nil {
		p.Close()
	}
}

// Atomic runs fn within a transaction, committing on nil and rolling back
// otherwise. A panic inside fn is rolled back and re-raised.
func (s *Store) Atomic(ctx context.Context, fn func(*Store) error) (err error) {
	pool := s.Pool()
	if pool == nil {
		return fmt.Errorf("atomic called on a store not backed by a pool")
	}

	start := time.Now().UTC()
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed", "panic", p, "rollback_error", rbErr)
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed", "error", err, "rollback_error", rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
		if err == nil {
			slog.DebugContext(ctx, "transaction committed", "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(&Store{pool: tx})
	return err
}
