package firestore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

type taskDoc struct {
	ID             string     `firestore:"id"`
	UserID         string     `firestore:"userId"`
	Title          string     `firestore:"title"`
	Description    string     `firestore:"description"`
	Priority       string     `firestore:"priority"`
	Status         string     `firestore:"status"`
	Category       string     `firestore:"category"`
	Order          int64      `firestore:"order"`
	DueDate        *time.Time `firestore:"dueDate"`
	Reminders      bool       `firestore:"reminders"`
	ReminderSentAt *time.Time `firestore:"reminderSentAt"`
	CompletedAt    *time.Time `firestore:"completedAt"`
	CreatedAt      time.Time  `firestore:"createdAt"`
	UpdatedAt      time.Time  `firestore:"updatedAt"`
}

type userDoc struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func toTaskDoc(t *domain.Task) taskDoc {
	return taskDoc{
		ID:             t.ID.String(),
		UserID:         t.UserID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Category:       t.Category,
		Order:          t.Order,
		DueDate:        utcPtr(t.DueDate),
		Reminders:      t.Reminders,
		ReminderSentAt: utcPtr(t.ReminderSentAt),
		CompletedAt:    utcPtr(t.CompletedAt),
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
	}
}

func (d taskDoc) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q on task %s: %w", d.UserID, d.ID, err)
	}

	return &domain.Task{
		ID:             id,
		UserID:         userID,
		Title:          d.Title,
		Description:    d.Description,
		Priority:       domain.Priority(d.Priority),
		Status:         domain.TaskStatus(d.Status),
		Category:       d.Category,
		Order:          d.Order,
		DueDate:        utcPtr(d.DueDate),
		Reminders:      d.Reminders,
		ReminderSentAt: utcPtr(d.ReminderSentAt),
		CompletedAt:    utcPtr(d.CompletedAt),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
