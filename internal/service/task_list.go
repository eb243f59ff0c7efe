package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// Tab names a task list view.
type Tab string

const (
	// TabInbox lists every open task. It is the default.
	TabInbox Tab = "inbox"
	// TabToday lists open tasks due on the current UTC day.
	TabToday Tab = "today"
	// TabUpcoming lists open tasks due from the next UTC day on.
	TabUpcoming Tab = "upcoming"
	// TabCompleted lists completed tasks.
	TabCompleted Tab = "completed"
)

// ListTasksParams narrows List. Zero values mean no filter.
type ListTasksParams struct {
	Tab      Tab             `validate:"omitempty,oneof=inbox today upcoming completed"`
	Priority domain.Priority `validate:"omitempty,oneof=Low Medium High"`
	// Search matches a case-insensitive substring of the title.
	Search string `validate:"max=200"`
}

// OrderUpdate moves one task in the caller's list.
type OrderUpdate = store.OrderUpdate

// taskFilter is ListTasksParams resolved against a single instant.
type taskFilter struct {
	tab      Tab
	priority domain.Priority
	search   string
	dayStart time.Time
	dayEnd   time.Time
}

func newTaskFilter(p ListTasksParams, now time.Time) taskFilter {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	tab := p.Tab
	if tab == "" {
		tab = TabInbox
	}
	return taskFilter{
		tab:      tab,
		priority: p.Priority,
		search:   strings.ToLower(strings.TrimSpace(p.Search)),
		dayStart: dayStart,
		dayEnd:   dayStart.Add(24 * time.Hour),
	}
}

func (f taskFilter) match(t *domain.Task) bool {
	if f.priority != "" && t.Priority != f.priority {
		return false
	}
	if f.search != "" && !strings.Contains(strings.ToLower(t.Title), f.search) {
		return false
	}

	switch f.tab {
	case TabCompleted:
		return t.IsCompleted()
	case TabToday:
		return !t.IsCompleted() && t.DueDate != nil &&
			!t.DueDate.Before(f.dayStart) && t.DueDate.Before(f.dayEnd)
	case TabUpcoming:
		return !t.IsCompleted() && t.DueDate != nil && !t.DueDate.Before(f.dayEnd)
	default:
		return !t.IsCompleted()
	}
}

// List implements TaskService.List. The store's ordering is kept.
func (s *taskServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	params ListTasksParams,
) ([]*domain.Task, error) {
	if err := validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}

	f := newTaskFilter(params, s.now())
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Reorder implements TaskService.Reorder. IDs the caller does not own are
// ignored; when an ID repeats, its last position wins.
func (s *taskServiceImpl) Reorder(ctx context.Context, userID uuid.UUID, updates []OrderUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(updates) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]int, len(updates))
	deduped := make([]OrderUpdate, 0, len(updates))
	for _, u := range updates {
		if i, ok := seen[u.TaskID]; ok {
			deduped[i].Order = u.Order
			continue
		}
		seen[u.TaskID] = len(deduped)
		deduped = append(deduped, u)
	}

	moved, err := s.tasks.Reorder(ctx, userID, deduped)
	if err != nil {
		log.Error("failed to reorder tasks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return NewTaskServiceError("reorder", "failed to reorder tasks", err)
	}

	log.Debug("tasks reordered",
		slog.String("user_id", userID.String()),
		slog.Int("requested", len(deduped)),
		slog.Int("moved", moved))
	return nil
}
