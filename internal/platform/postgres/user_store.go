package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PostgresUserStore implements store.UserStore on PostgreSQL.
type PostgresUserStore struct {
	db store.DBTX
}

// NewPostgresUserStore creates a user store over db, which may be a *sql.DB
// or a *sql.Tx.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, user.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("email already exists", "user_id", user.ID)
			return store.ErrEmailExists
		}
		log.Error("failed to insert user", "user_id", user.ID, "error", err)
		return MapError(err)
	}

	log.Debug("user created", "user_id", user.ID)
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContext(ctx).Error("failed to get user", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", mapped)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
