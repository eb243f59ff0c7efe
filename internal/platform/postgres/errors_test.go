package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_user_id_fkey",
	}
}

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
		same    bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), wantIs: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), wantIs: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), wantIs: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), wantIs: store.ErrInvalidEntity},
		{name: "wrapped pg error", err: fmt.Errorf("insert: %w", newPgError("23505")), wantIs: store.ErrDuplicate},
		{name: "unmapped pg error", err: newPgError("42P01"), same: true},
		{name: "other error", err: plain, same: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := postgres.MapError(tc.err)
			switch {
			case tc.wantNil:
				assert.NoError(t, got)
			case tc.same:
				assert.Equal(t, tc.err, got)
			default:
				assert.ErrorIs(t, got, tc.wantIs)
			}
		})
	}
}

func TestViolationHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("23505")))

	assert.True(t, postgres.IsForeignKeyViolation(fmt.Errorf("x: %w", newPgError("23503"))))
	assert.False(t, postgres.IsForeignKeyViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("rows affected", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrTaskNotFound))
	})

	t.Run("no rows uses given error", func(t *testing.T) {
		t.Parallel()
		err := postgres.CheckRowsAffected(mockResult{}, store.ErrTaskNotFound)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("no rows defaults to not found", func(t *testing.T) {
		t.Parallel()
		err := postgres.CheckRowsAffected(mockResult{}, nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rows affected error", func(t *testing.T) {
		t.Parallel()
		err := postgres.CheckRowsAffected(mockResult{err: errors.New("driver")}, nil)
		assert.ErrorContains(t, err, "failed to get rows affected")
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, postgres.CheckRowsAffected(nil, nil))
	})
}
