package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// Store is the persistence the dispatcher needs.
type Store interface {
	// FindDueCandidates returns every task eligible in the window [now, deadline]:
	// reminders on, not completed, due date inside the window, reminder not sent.
	FindDueCandidates(ctx context.Context, now, deadline time.Time) ([]*domain.Task, error)

	// FindOwner returns the task owner, or an error wrapping store.ErrUserNotFound.
	FindOwner(ctx context.Context, ownerID uuid.UUID) (*domain.User, error)

	// MarkReminderSent sets reminder_sent_at on a single task, provided its due
	// date is still dueDate. Otherwise it returns store.ErrReminderRearmed and
	// leaves the task armed. Repeating the call is harmless.
	MarkReminderSent(ctx context.Context, taskID uuid.UUID, dueDate, sentAt time.Time) error
}

// CandidateStore is the task half of Store.
type CandidateStore interface {
	FindDueCandidates(ctx context.Context, now, deadline time.Time) ([]*domain.Task, error)
	MarkReminderSent(ctx context.Context, taskID uuid.UUID, dueDate, sentAt time.Time) error
}

// OwnerLookup is satisfied by store.UserStore.
type OwnerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type storeAdapter struct {
	CandidateStore
	owners OwnerLookup
}

// NewStore combines a task store and a user store into a Store.
func NewStore(tasks CandidateStore, owners OwnerLookup) Store {
	return &storeAdapter{CandidateStore: tasks, owners: owners}
}

func (s *storeAdapter) FindOwner(ctx context.Context, ownerID uuid.UUID) (*domain.User, error) {
	return s.owners.GetByID(ctx, ownerID)
}
