package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/clinicdesk/internal/apperrors"
	"github.com/nkiryanov/clinicdesk/internal/storage"
	"github.com/nkiryanov/clinicdesk/internal/storage/storagetest"
	"github.com/nkiryanov/clinicdesk/internal/testutil"
)

func TestPostgresStorage(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Each storage works inside its own transaction rolled back on test end
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		tx, err := pg.Pool.Begin(t.Context())
		require.NoError(t, err)
		t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

		return New(tx)
	})

	t.Run("set is atomic", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := New(tx)

			// Long value violates check constraint, so nothing has to be written
			err := s.Set(t.Context(), map[string]string{"a": "1"})
			require.NoError(t, err)

			_, err = tx.Exec(t.Context(), `ALTER TABLE session_kv ADD CONSTRAINT short_value CHECK (length(value) < 5)`)
			require.NoError(t, err)

			err = s.Set(t.Context(), map[string]string{"a": "2", "b": "too long value"})
			require.Error(t, err)
			require.NotErrorIs(t, err, apperrors.ErrStorageUnavailable, "constraint violation is not availability problem")

			a, err := s.Get(t.Context(), "a")
			require.NoError(t, err)
			require.Equal(t, "1", a, "failed set must not change existing values")

			_, err = s.Get(t.Context(), "b")
			require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
		})
	})
}
