package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// TaskMutator applies changes to a loaded task inside a store update.
// Returning an error aborts the update and leaves the stored task untouched.
type TaskMutator func(task *domain.Task) error

// OrderUpdate moves one task to a new position in its owner's list.
type OrderUpdate struct {
	TaskID uuid.UUID
	Order  int64
}

// TaskStore defines the interface for task persistence used by the
// task mutation path.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns all tasks owned by userID, ordered by Order then
	// newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update loads the task, applies fn and persists the result atomically with
	// respect to other updates of the same task. UpdatedAt is maintained by the store.
	// Returns ErrTaskNotFound if the task does not exist, or fn's error unchanged.
	Update(ctx context.Context, id uuid.UUID, fn TaskMutator) (*domain.Task, error)

	// Reorder applies updates in one transaction, touching only tasks owned by
	// userID. Unknown or foreign task IDs are ignored. It returns how many tasks
	// were moved.
	Reorder(ctx context.Context, userID uuid.UUID, updates []OrderUpdate) (int, error)

	// Delete removes a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
