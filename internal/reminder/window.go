package reminder

import (
	"time"

	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// LeadTime is how far ahead of a due date a reminder is sent.
const LeadTime = 24 * time.Hour

// Window is the closed interval [Start, End] of due dates that qualify for a
// reminder at instant Start.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow captures the window for a pass running at now. Both bounds derive
// from the same instant.
func NewWindow(now time.Time) Window {
	now = now.UTC()
	return Window{Start: now, End: now.Add(LeadTime)}
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Eligible reports whether task needs a reminder in this window: reminders
// enabled, not completed, due inside the window and not reminded yet for the
// current due date.
func (w Window) Eligible(task *domain.Task) bool {
	if task == nil || !task.Reminders || task.IsCompleted() {
		return false
	}
	if task.DueDate == nil || task.ReminderSentAt != nil {
		return false
	}
	return w.Contains(*task.DueDate)
}

// SelectDue returns the eligible tasks at now, preserving input order.
func SelectDue(now time.Time, tasks []*domain.Task) []*domain.Task {
	w := NewWindow(now)
	var due []*domain.Task
	for _, t := range tasks {
		if w.Eligible(t) {
			due = append(due, t)
		}
	}
	return due
}
