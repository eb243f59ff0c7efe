package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the user-assigned importance of a task.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "None"

// Task is a unit of work owned by exactly one user.
//
// ReminderSentAt is non-nil only if a reminder was attempted for the current
// DueDate. Every write to DueDate goes through SetDueDate, which clears it.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       Priority   `json:"priority"`
	Status         TaskStatus `json:"status"`
	Category       string     `json:"category"`
	Order          int64      `json:"order"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Reminders      bool       `json:"reminders"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTask creates a task for userID with the defaults applied to every new task:
// Medium priority, todo status, the default category, reminders enabled and an
// order derived from the creation instant.
func NewTask(userID uuid.UUID, title string, now time.Time) (*Task, error) {
	now = now.UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Priority:  PriorityMedium,
		Status:    TaskStatusTodo,
		Category:  DefaultCategory,
		Order:     now.UnixMilli(),
		Reminders: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: task ID cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

// SetDueDate replaces the due date (nil clears it) and re-arms the reminder.
func (t *Task) SetDueDate(due *time.Time) {
	if due != nil {
		d := due.UTC()
		t.DueDate = &d
	} else {
		t.DueDate = nil
	}
	t.ReminderSentAt = nil
}

// SetStatus changes the status, stamping CompletedAt when the task becomes
// completed and clearing it for any other status.
func (t *Task) SetStatus(status TaskStatus, now time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	t.Status = status
	if status == TaskStatusCompleted {
		at := now.UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return nil
}

// ToggleComplete flips between completed and todo.
func (t *Task) ToggleComplete(now time.Time) {
	next := TaskStatusCompleted
	if t.Status == TaskStatusCompleted {
		next = TaskStatusTodo
	}
	// next is always valid
	_ = t.SetStatus(next, now)
}

// IsCompleted reports whether the task is done.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
