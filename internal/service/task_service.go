package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

var validate = validator.New()

// CreateTaskParams describes a new task. Zero values take the task defaults.
type CreateTaskParams struct {
	Title       string            `validate:"required,max=200"`
	Description string            `validate:"max=2000"`
	Priority    domain.Priority   `validate:"omitempty,oneof=Low Medium High"`
	Status      domain.TaskStatus `validate:"omitempty,oneof=todo in_progress completed"`
	Category    string            `validate:"max=50"`
	DueDate     *time.Time
	// Reminders defaults to true when nil.
	Reminders *bool
}

// UpdateTaskParams is a partial update: nil fields are left alone.
type UpdateTaskParams struct {
	Title       *string            `validate:"omitempty,max=200"`
	Description *string            `validate:"omitempty,max=2000"`
	Priority    *domain.Priority   `validate:"omitempty,oneof=Low Medium High"`
	Status      *domain.TaskStatus `validate:"omitempty,oneof=todo in_progress completed"`
	Category    *string            `validate:"omitempty,max=50"`
	Order       *int64
	DueDate     *time.Time
	// ClearDueDate removes the due date.
	ClearDueDate bool
	Reminders    *bool
}

func (p UpdateTaskParams) isEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Priority == nil &&
		p.Status == nil &&
		p.Category == nil &&
		p.Order == nil &&
		p.DueDate == nil &&
		!p.ClearDueDate &&
		p.Reminders == nil
}

// TaskService is the task mutation path. All operations are scoped to the
// calling user; another user's task behaves as if it did not exist.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*domain.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, userID uuid.UUID, params ListTasksParams) ([]*domain.Task, error)
	Reorder(ctx context.Context, userID uuid.UUID, updates []OrderUpdate) error
	Update(ctx context.Context, userID, taskID uuid.UUID, params UpdateTaskParams) (*domain.Task, error)
	ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

type taskServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a TaskService over tasks.
func NewTaskService(tasks store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks store cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_service")),
		now:    time.Now,
	}, nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// Create implements TaskService.Create
func (s *taskServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	params.Title = strings.TrimSpace(params.Title)
	if err := validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	task, err := domain.NewTask(userID, params.Title, now)
	if err != nil {
		return nil, validationError(err)
	}

	task.Description = params.Description
	if params.Priority != "" {
		task.Priority = params.Priority
	}
	if params.Status != "" {
		if err := task.SetStatus(params.Status, now); err != nil {
			return nil, validationError(err)
		}
	}
	if c := strings.TrimSpace(params.Category); c != "" {
		task.Category = c
	}
	if params.Reminders != nil {
		task.Reminders = *params.Reminders
	}
	task.SetDueDate(params.DueDate)

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// Get implements TaskService.Get
func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, NewTaskServiceError("get", "failed to load task", err)
	}
	if task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// Update implements TaskService.Update. Any due date in the update, even an
// unchanged one, re-arms the reminder.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	params UpdateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if params.isEmpty() {
		return nil, ErrNothingToUpdate
	}
	if params.DueDate != nil && params.ClearDueDate {
		return nil, ErrConflictingDueDate
	}
	if err := validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	task, err := s.mutate(ctx, "update", userID, taskID, func(t *domain.Task, now time.Time) error {
		if params.Title != nil {
			t.Title = strings.TrimSpace(*params.Title)
		}
		if params.Description != nil {
			t.Description = *params.Description
		}
		if params.Priority != nil {
			t.Priority = *params.Priority
		}
		if params.Category != nil {
			t.Category = strings.TrimSpace(*params.Category)
			if t.Category == "" {
				t.Category = domain.DefaultCategory
			}
		}
		if params.Order != nil {
			t.Order = *params.Order
		}
		if params.Reminders != nil {
			t.Reminders = *params.Reminders
		}
		if params.Status != nil {
			if err := t.SetStatus(*params.Status, now); err != nil {
				return validationError(err)
			}
		}
		switch {
		case params.DueDate != nil:
			t.SetDueDate(params.DueDate)
		case params.ClearDueDate:
			t.SetDueDate(nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("task updated", slog.String("task_id", taskID.String()))
	return task, nil
}

// ToggleComplete implements TaskService.ToggleComplete
func (s *taskServiceImpl) ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.mutate(ctx, "toggle_complete", userID, taskID, func(t *domain.Task, now time.Time) error {
		t.ToggleComplete(now)
		return nil
	})
}

// Delete implements TaskService.Delete
func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to delete task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return NewTaskServiceError("delete", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	return nil
}

// mutate runs fn on the stored task inside the store's update, enforcing ownership.
func (s *taskServiceImpl) mutate(
	ctx context.Context,
	op string,
	userID, taskID uuid.UUID,
	fn func(t *domain.Task, now time.Time) error,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	task, err := s.tasks.Update(ctx, taskID, func(t *domain.Task) error {
		if t.UserID != userID {
			return store.ErrTaskNotFound
		}
		return fn(t, now)
	})
	if err != nil {
		switch {
		case store.IsNotFoundError(err):
			return nil, store.ErrTaskNotFound
		case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
			return nil, err
		}
		log.Error("failed to update task",
			slog.String("operation", op),
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError(op, "failed to update task", err)
	}
	return task, nil
}
