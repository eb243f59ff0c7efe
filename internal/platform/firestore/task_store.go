package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
	"github.com/taskflow-app/taskflow-api/internal/store"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewClient opens a Firestore client for projectID. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the emulator.
func NewClient(ctx context.Context, projectID string) (*gcfs.Client, error) {
	client, err := gcfs.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// TaskStore implements store.TaskStore and the task half of reminder.Store
// on a Firestore "tasks" collection.
type TaskStore struct {
	client *gcfs.Client
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(client *gcfs.Client) *TaskStore {
	return &TaskStore{client: client}
}

var (
	_ store.TaskStore         = (*TaskStore)(nil)
	_ reminder.CandidateStore = (*TaskStore)(nil)
)

func (s *TaskStore) tasks() *gcfs.CollectionRef {
	return s.client.Collection(tasksCollection)
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.tasks().Doc(task.ID.String()).Create(ctx, toTaskDoc(task))
	if err != nil {
		logger.FromContext(ctx).Error("failed to create task", "task_id", task.ID, "error", err)
		return mapError(err, store.ErrTaskNotFound)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	snap, err := s.tasks().Doc(id.String()).Get(ctx)
	if err != nil {
		return nil, mapError(err, store.ErrTaskNotFound)
	}
	return decodeTask(snap)
}

// ListByUser implements store.TaskStore.ListByUser
func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	iter := s.tasks().
		Where("userId", "==", userID.String()).
		OrderBy("order", gcfs.Asc).
		OrderBy("createdAt", gcfs.Desc).
		Documents(ctx)
	return collectTasks(iter)
}

// Update implements store.TaskStore.Update inside a Firestore transaction.
func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, fn store.TaskMutator) (*domain.Task, error) {
	ref := s.tasks().Doc(id.String())
	var updated *domain.Task

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapError(err, store.ErrTaskNotFound)
		}
		task, err := decodeTask(snap)
		if err != nil {
			return err
		}

		if err := fn(task); err != nil {
			return err
		}
		task.UpdatedAt = time.Now().UTC()
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}

		updated = task
		return tx.Set(ref, toTaskDoc(task))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Reorder implements store.TaskStore.Reorder. All reads happen before the
// writes, as Firestore transactions require.
func (s *TaskStore) Reorder(ctx context.Context, userID uuid.UUID, updates []store.OrderUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	refs := make([]*gcfs.DocumentRef, len(updates))
	for i, u := range updates {
		refs[i] = s.tasks().Doc(u.TaskID.String())
	}

	moved := 0
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		moved = 0
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return mapError(err, store.ErrTaskNotFound)
		}

		now := time.Now().UTC()
		for i, snap := range snaps {
			if !snap.Exists() {
				continue
			}
			var doc taskDoc
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("failed to decode task %s: %w", snap.Ref.ID, err)
			}
			if doc.UserID != userID.String() {
				continue
			}
			if err := tx.Update(refs[i], []gcfs.Update{
				{Path: "order", Value: updates[i].Order},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to reorder tasks", "user_id", userID, "error", err)
		return 0, mapError(err, store.ErrTaskNotFound)
	}
	return moved, nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.tasks().Doc(id.String()).Delete(ctx, gcfs.Exists)
	if err != nil {
		return mapError(err, store.ErrTaskNotFound)
	}
	return nil
}

// FindDueCandidates queries tasks with reminders on, no reminder sent and a
// due date in [now, deadline], then drops completed tasks.
func (s *TaskStore) FindDueCandidates(ctx context.Context, now, deadline time.Time) ([]*domain.Task, error) {
	iter := s.tasks().
		Where("reminders", "==", true).
		Where("reminderSentAt", "==", nil).
		Where("dueDate", ">=", now.UTC()).
		Where("dueDate", "<=", deadline.UTC()).
		OrderBy("dueDate", gcfs.Asc).
		Documents(ctx)

	tasks, err := collectTasks(iter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query reminder candidates", "error", err)
		return nil, store.NewStoreError("task", "find_due_candidates", "query failed", mapError(err, store.ErrTaskNotFound))
	}

	window := reminder.Window{Start: now.UTC(), End: deadline.UTC()}
	due := tasks[:0]
	for _, t := range tasks {
		if window.Eligible(t) {
			due = append(due, t)
		}
	}
	return due, nil
}

// MarkReminderSent implements reminder.CandidateStore.MarkReminderSent. The
// due date is compared inside a transaction, so a task rescheduled since it
// was selected is left armed and store.ErrReminderRearmed is returned.
func (s *TaskStore) MarkReminderSent(ctx context.Context, taskID uuid.UUID, dueDate, sentAt time.Time) error {
	ref := s.tasks().Doc(taskID.String())

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapError(err, store.ErrTaskNotFound)
		}
		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("failed to decode task %s: %w", taskID, err)
		}
		if doc.DueDate == nil || !doc.DueDate.Equal(dueDate) {
			return store.ErrReminderRearmed
		}
		return tx.Update(ref, []gcfs.Update{
			{Path: "reminderSentAt", Value: sentAt.UTC()},
		})
	})
	if err != nil && !errors.Is(err, store.ErrReminderRearmed) && !store.IsNotFoundError(err) {
		logger.FromContext(ctx).Error("failed to mark reminder sent", "task_id", taskID, "error", err)
		return store.NewStoreError("task", "mark_reminder_sent", "update failed", err)
	}
	return err
}

func decodeTask(snap *gcfs.DocumentSnapshot) (*domain.Task, error) {
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain()
}

func collectTasks(iter *gcfs.DocumentIterator) ([]*domain.Task, error) {
	defer iter.Stop()

	var tasks []*domain.Task
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tasks: %w", err)
		}
		task, err := decodeTask(snap)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// mapError translates gRPC status codes into store sentinels.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return notFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return err
}
