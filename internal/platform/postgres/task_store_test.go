package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// openIntegrationDB connects to DATABASE_URL and migrates it, or skips.
func openIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, postgres.Migrate(ctx, db, "up", nil))

	return db
}

func createIntegrationUser(t *testing.T, db *sql.DB) *domain.User {
	t.Helper()

	user, err := domain.NewUser("Integration User", uuid.NewString()+"@example.com")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresUserStore(db).Create(context.Background(), user))

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM users WHERE id = $1`, user.ID)
	})
	return user
}

func TestIntegration_FindDueCandidatesMatchesSelector(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	tasks := postgres.NewPostgresTaskStore(db)
	user := createIntegrationUser(t, db)

	// Far future so rows left by other tests cannot fall in the window.
	now := time.Date(2091, 3, 1, 9, 0, 0, 0, time.UTC)
	window := reminder.NewWindow(now)

	add := func(title string, due *time.Time, mutate func(*domain.Task)) *domain.Task {
		task, err := domain.NewTask(user.ID, title, now)
		require.NoError(t, err)
		task.SetDueDate(due)
		if mutate != nil {
			mutate(task)
		}
		require.NoError(t, tasks.Create(ctx, task))
		return task
	}
	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }

	lower := add("lower bound", at(0), nil)
	upper := add("upper bound", at(reminder.LeadTime), nil)
	middle := add("middle", at(12*time.Hour), nil)
	add("past", at(-time.Millisecond), nil)
	add("beyond", at(reminder.LeadTime+time.Millisecond), nil)
	add("no due date", nil, nil)
	add("reminders off", at(time.Hour), func(t *domain.Task) { t.Reminders = false })
	add("completed", at(time.Hour), func(t *domain.Task) { _ = t.SetStatus(domain.TaskStatusCompleted, now) })
	add("already sent", at(time.Hour), func(t *domain.Task) { t.ReminderSentAt = at(-time.Hour) })

	got, err := tasks.FindDueCandidates(ctx, window.Start, window.End)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, task := range got {
		if task.UserID == user.ID {
			ids = append(ids, task.ID)
		}
	}
	assert.Equal(t, []uuid.UUID{lower.ID, middle.ID, upper.ID}, ids)

	require.NoError(t, tasks.MarkReminderSent(ctx, middle.ID, *middle.DueDate, now))
	require.NoError(t, tasks.MarkReminderSent(ctx, middle.ID, *middle.DueDate, now))

	again, err := tasks.FindDueCandidates(ctx, window.Start, window.End)
	require.NoError(t, err)
	for _, task := range again {
		assert.NotEqual(t, middle.ID, task.ID)
	}

	// Rescheduling re-arms the reminder.
	newDue := now.Add(2 * time.Hour)
	updated, err := tasks.Update(ctx, middle.ID, func(t *domain.Task) error {
		t.SetDueDate(&newDue)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ReminderSentAt)

	// A write-back for the old due date must not disarm the new one.
	err = tasks.MarkReminderSent(ctx, middle.ID, *middle.DueDate, now)
	assert.ErrorIs(t, err, store.ErrReminderRearmed)

	stored, err := tasks.GetByID(ctx, middle.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReminderSentAt)
	assert.True(t, newDue.Equal(*stored.DueDate))

	err = tasks.MarkReminderSent(ctx, uuid.New(), newDue, now)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestIntegration_TaskLifecycle(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	tasks := postgres.NewPostgresTaskStore(db)
	user := createIntegrationUser(t, db)

	task, err := domain.NewTask(user.ID, "Lifecycle", time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, task))

	list, err := tasks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	orphan, err := domain.NewTask(uuid.New(), "Orphan", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, tasks.Create(ctx, orphan), store.ErrInvalidEntity)
}

func TestIntegration_Reorder(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	tasks := postgres.NewPostgresTaskStore(db)
	owner := createIntegrationUser(t, db)
	other := createIntegrationUser(t, db)

	first, err := domain.NewTask(owner.ID, "First", time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, first))
	second, err := domain.NewTask(owner.ID, "Second", time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, second))
	foreign, err := domain.NewTask(other.ID, "Foreign", time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, foreign))

	moved, err := tasks.Reorder(ctx, owner.ID, []store.OrderUpdate{
		{TaskID: second.ID, Order: 0},
		{TaskID: first.ID, Order: 1},
		{TaskID: foreign.ID, Order: -5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	list, err := tasks.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	untouched, err := tasks.GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.Order, untouched.Order)
}
