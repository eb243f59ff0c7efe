package firestore

import (
	"context"
	"errors"
	"fmt"

	gcfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// UserStore implements store.UserStore on a Firestore "users" collection.
type UserStore struct {
	client *gcfs.Client
}

// NewUserStore creates a UserStore.
func NewUserStore(client *gcfs.Client) *UserStore {
	return &UserStore{client: client}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create. Email uniqueness is checked in
// the same transaction as the insert.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	users := s.client.Collection(usersCollection)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		existing, err := tx.Documents(users.Where("email", "==", user.Email).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if len(existing) > 0 {
			return store.ErrEmailExists
		}

		if err := tx.Create(users.Doc(user.ID.String()), toUserDoc(user)); err != nil {
			return mapError(err, store.ErrUserNotFound)
		}
		return nil
	})
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		mapped := mapError(err, store.ErrUserNotFound)
		if errors.Is(mapped, store.ErrUserNotFound) {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to get user: %w", mapped)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return doc.toDomain()
}
