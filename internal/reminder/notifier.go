package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// ErrNoDueDate is returned when a payload is requested for a task without a due date.
var ErrNoDueDate = errors.New("task has no due date")

// Payload is everything a Notifier needs to render one reminder.
type Payload struct {
	ToEmail         string
	ToName          string
	TaskTitle       string
	TaskDescription string
	Priority        domain.Priority
	DueDate         time.Time
}

// Notifier delivers a reminder to its recipient. Transport, templating and
// credentials are the implementation's concern.
type Notifier interface {
	SendReminder(ctx context.Context, p Payload) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, p Payload) error

// SendReminder implements Notifier.
func (f NotifierFunc) SendReminder(ctx context.Context, p Payload) error { return f(ctx, p) }

// NewPayload builds the reminder for task addressed to its owner.
func NewPayload(task *domain.Task, owner *domain.User) (Payload, error) {
	if task.DueDate == nil {
		return Payload{}, ErrNoDueDate
	}
	return Payload{
		ToEmail:         owner.Email,
		ToName:          owner.FirstName(),
		TaskTitle:       task.Title,
		TaskDescription: task.Description,
		Priority:        task.Priority,
		DueDate:         task.DueDate.UTC(),
	}, nil
}
