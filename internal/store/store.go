// Package store persists conversion history to PostgreSQL. It is optional:
// the pipeline runs fine without a database, and the CLI only opens one
// when a history DSN is configured.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID         string
	Source     string
	Variables  int
	Resolved   int
	Missing    []string
	Warnings   int
	DurationMS int64
	CreatedAt  time.Time
}

// Store provides a PostgreSQL implementation of conversion history.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const schemaSQL = `
    CREATE TABLE IF NOT EXISTS conversions (
        id          TEXT PRIMARY KEY,
        source      TEXT NOT NULL,
        variables   INTEGER NOT NULL,
        resolved    INTEGER NOT NULL,
        missing     JSONB NOT NULL,
        warnings    INTEGER NOT NULL,
        duration_ms BIGINT NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL
    );
`

// EnsureSchema creates the history table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure conversions schema: %w", err)
	}
	return nil
}

// RecordConversions inserts a batch of history rows in one transaction.
func (s *Store) RecordConversions(ctx context.Context, records []ConversionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit reports pgx.ErrTxClosed, which
		// is not an error worth logging.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		missing, err := json.Marshal(rec.Missing)
		if err != nil {
			return fmt.Errorf("failed to encode missing list for %s: %w", rec.ID, err)
		}
		if rec.Missing == nil {
			missing = json.RawMessage("[]")
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		rows[i] = []interface{}{
			rec.ID, rec.Source,
			rec.Variables, rec.Resolved,
			missing, rec.Warnings,
			rec.DurationMS,
			createdAt.UTC(),
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"conversions"},
		[]string{"id", "source", "variables", "resolved", "missing", "warnings", "duration_ms", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy conversion records: %w", err)
	}
	if int(copyCount) != len(records) {
		return fmt.Errorf("mismatch in copied record count: expected %d, got %d", len(records), copyCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentConversions returns the newest history rows, newest first.
func (s *Store) RecentConversions(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, source, variables, resolved, missing, warnings, duration_ms, created_at
        FROM conversions
        ORDER BY created_at DESC
        LIMIT $1;
    `
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var records []ConversionRecord
	for rows.Next() {
		var rec ConversionRecord
		var missing json.RawMessage

		err := rows.Scan(
			&rec.ID, &rec.Source,
			&rec.Variables, &rec.Resolved,
			&missing, &rec.Warnings,
			&rec.DurationMS, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion row: %w", err)
		}

		if len(missing) > 0 {
			if err := json.Unmarshal(missing, &rec.Missing); err != nil {
				return nil, fmt.Errorf("failed to decode missing list for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}
