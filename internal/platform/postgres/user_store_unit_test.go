package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

func TestPostgresUserStore_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "success"},
		{name: "duplicate email", execErr: newPgError("23505"), wantErr: store.ErrEmailExists},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			s := postgres.NewPostgresUserStore(db)
			user, err := domain.NewUser("Ada Lovelace", "ada@example.com")
			require.NoError(t, err)

			exp := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
				WithArgs(user.ID.String(), user.Name, user.Email, user.CreatedAt)
			if tc.execErr != nil {
				exp.WillReturnError(tc.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err = s.Create(context.Background(), user)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("invalid user", func(t *testing.T) {
		t.Parallel()

		db, _ := newMockDB(t)
		s := postgres.NewPostgresUserStore(db)

		err := s.Create(context.Background(), &domain.User{ID: uuid.New(), Name: "x", Email: "nope"})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})
}

func TestPostgresUserStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
				AddRow(id.String(), "Grace Hopper", "grace@example.com", fixedNow))

		user, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "Grace", user.FirstName())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := postgres.NewPostgresUserStore(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}))

		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
