package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
// Registration and credentials live in the auth layer; this store only
// exposes what task ownership and reminders need.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
