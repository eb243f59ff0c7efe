package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

const taskColumns = `id, user_id, title, description, priority, status, category, sort_order,
	due_date, reminders, reminder_sent_at, completed_at, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore and the task half of
// reminder.Store on PostgreSQL.
type PostgresTaskStore struct {
	db *sql.DB
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

var (
	_ store.TaskStore         = (*PostgresTaskStore)(nil)
	_ reminder.CandidateStore = (*PostgresTaskStore)(nil)
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                                  domain.Task
		dueDate, reminderSent, completedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.Category,
		&t.Order,
		&dueDate,
		&t.Reminders,
		&reminderSent,
		&completedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.DueDate = nullTimePtr(dueDate)
	t.ReminderSentAt = nullTimePtr(reminderSent)
	t.CompletedAt = nullTimePtr(completedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.Category,
		task.Order,
		task.DueDate,
		task.Reminders,
		task.ReminderSentAt,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert task",
			"task_id", task.ID,
			"user_id", task.UserID,
			"error", err)
		return MapError(err)
	}

	log.Debug("task created", "task_id", task.ID)
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return getTask(ctx, s.db, id, false)
}

func getTask(ctx context.Context, db store.DBTX, id uuid.UUID, forUpdate bool) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContext(ctx).Error("failed to get task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY sort_order ASC, created_at DESC`,
		userID,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list tasks", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	return collectTasks(rows)
}

// Update implements store.TaskStore.Update. The row is locked for the
// duration of fn so concurrent updates of the same task serialise.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	fn store.TaskMutator,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := getTask(ctx, tx, id, true)
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

		result, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = $2,
				description = $3,
				priority = $4,
				status = $5,
				category = $6,
				sort_order = $7,
				due_date = $8,
				reminders = $9,
				reminder_sent_at = $10,
				completed_at = $11,
				updated_at = $12
			WHERE id = $1`,
			task.ID,
			task.Title,
			task.Description,
			task.Priority,
			task.Status,
			task.Category,
			task.Order,
			task.DueDate,
			task.Reminders,
			task.ReminderSentAt,
			task.CompletedAt,
			task.UpdatedAt,
		)
		if err != nil {
			logger.FromContext(ctx).Error("failed to update task", "task_id", id, "error", err)
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Reorder implements store.TaskStore.Reorder
func (s *PostgresTaskStore) Reorder(ctx context.Context, userID uuid.UUID, updates []store.OrderUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	moved := 0
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, u := range updates {
			result, err := tx.ExecContext(ctx,
				`UPDATE tasks SET sort_order = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`,
				u.TaskID,
				userID,
				u.Order,
				now,
			)
			if err != nil {
				logger.FromContext(ctx).Error("failed to reorder task", "task_id", u.TaskID, "error", err)
				return MapError(err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			moved += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to delete task", "task_id", id, "error", err)
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// FindDueCandidates returns the tasks that need a reminder for the window
// [now, deadline], oldest due date first.
func (s *PostgresTaskStore) FindDueCandidates(
	ctx context.Context,
	now, deadline time.Time,
) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE reminders
			AND status <> 'completed'
			AND reminder_sent_at IS NULL
			AND due_date BETWEEN $1 AND $2
		ORDER BY due_date ASC`,
		now.UTC(),
		deadline.UTC(),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query reminder candidates", "error", err)
		return nil, store.NewStoreError("task", "find_due_candidates", "query failed", MapError(err))
	}
	return collectTasks(rows)
}

// MarkReminderSent records that the reminder for dueDate went out. The write
// only lands while the task is still due at dueDate; a task rescheduled in the
// meantime yields store.ErrReminderRearmed and stays armed. Setting the same
// value twice is harmless.
func (s *PostgresTaskStore) MarkReminderSent(
	ctx context.Context,
	taskID uuid.UUID,
	dueDate, sentAt time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET reminder_sent_at = $3 WHERE id = $1 AND due_date = $2`,
		taskID,
		dueDate.UTC(),
		sentAt.UTC(),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to mark reminder sent", "task_id", taskID, "error", err)
		return store.NewStoreError("task", "mark_reminder_sent", "update failed", MapError(err))
	}

	err = CheckRowsAffected(result, store.ErrReminderRearmed)
	if !errors.Is(err, store.ErrReminderRearmed) {
		return err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, taskID,
	).Scan(&exists); err != nil {
		return store.NewStoreError("task", "mark_reminder_sent", "existence check failed", MapError(err))
	}
	if !exists {
		return store.ErrTaskNotFound
	}
	return store.ErrReminderRearmed
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", MapError(err))
	}
	return tasks, nil
}
