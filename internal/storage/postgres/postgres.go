package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
)

// Either pool or transaction
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Storage keeps entries in session_kv table (see internal/db migrations)
type Storage struct {
	db DBTX
}

func New(db DBTX) *Storage {
	return &Storage{db: db}
}

const getValue = `-- name: GetValue
SELECT value FROM session_kv
WHERE key = $1
`

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	rows, _ := s.db.Query(ctx, getValue, key)
	value, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", apperrors.ErrKeyNotFound
	default:
		return "", dbError(err)
	}
}

const upsertValue = `-- name: UpsertValue
INSERT INTO session_kv (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`

// Set writes all entries in one transaction
func (s *Storage) Set(ctx context.Context, entries map[string]string) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return dbError(err)
	}

	defer func() {
		switch err {
		case nil:
			if cerr := tx.Commit(ctx); cerr != nil {
				err = dbError(cerr)
			}
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	for k, v := range entries {
		if _, err = tx.Exec(ctx, upsertValue, k, v); err != nil {
			return dbError(err)
		}
	}

	return nil
}

const deleteValues = `-- name: DeleteValues
DELETE FROM session_kv
WHERE key = ANY($1)
`

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if _, err := s.db.Exec(ctx, deleteValues, keys); err != nil {
		return dbError(err)
	}
	return nil
}

// dbError marks errors caused by unreachable database as apperrors.ErrStorageUnavailable
func dbError(err error) error {
	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError

	switch {
	case errors.As(err, &connErr):
		return fmt.Errorf("db error: %w: %w", apperrors.ErrStorageUnavailable, err)
	case errors.As(err, &pgErr) && (pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsOperatorIntervention(pgErr.Code)):
		return fmt.Errorf("db error: %w: %w", apperrors.ErrStorageUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
