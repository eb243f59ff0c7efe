package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// memStore is an in-memory Store. The Fn fields override the default
// behaviour when set.
type memStore struct {
	mu    sync.Mutex
	tasks []*domain.Task
	users map[uuid.UUID]*domain.User

	FindDueCandidatesFn func(ctx context.Context, now, deadline time.Time) ([]*domain.Task, error)
	FindOwnerFn         func(ctx context.Context, ownerID uuid.UUID) (*domain.User, error)
	MarkReminderSentFn  func(ctx context.Context, taskID uuid.UUID, dueDate, sentAt time.Time) error

	marked []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *memStore) addUser(name, email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: uuid.New(), Name: name, Email: email}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addTask(task *domain.Task) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return task
}

// reschedule moves a stored task's due date and re-arms it.
func (s *memStore) reschedule(id uuid.UUID, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			t.SetDueDate(&due)
		}
	}
}

func (s *memStore) task(id uuid.UUID) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			cp := *t
			return &cp
		}
	}
	return nil
}

func (s *memStore) FindDueCandidates(ctx context.Context, now, deadline time.Time) ([]*domain.Task, error) {
	if s.FindDueCandidatesFn != nil {
		return s.FindDueCandidatesFn(ctx, now, deadline)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, t := range SelectDue(now, s.tasks) {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) FindOwner(ctx context.Context, ownerID uuid.UUID) (*domain.User, error) {
	if s.FindOwnerFn != nil {
		return s.FindOwnerFn(ctx, ownerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[ownerID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) MarkReminderSent(ctx context.Context, taskID uuid.UUID, dueDate, sentAt time.Time) error {
	if s.MarkReminderSentFn != nil {
		return s.MarkReminderSentFn(ctx, taskID, dueDate, sentAt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.ID == taskID {
			if t.DueDate == nil || !t.DueDate.Equal(dueDate) {
				return store.ErrReminderRearmed
			}
			at := sentAt
			t.ReminderSentAt = &at
			s.marked = append(s.marked, taskID)
			return nil
		}
	}
	return store.ErrTaskNotFound
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendReminder(ctx context.Context, p Payload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// recordingNotifier captures payloads without expectations.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Payload
	err  func(Payload) error
}

func (n *recordingNotifier) SendReminder(_ context.Context, p Payload) error {
	if n.err != nil {
		if err := n.err(p); err != nil {
			return err
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, p)
	return nil
}

func (n *recordingNotifier) payloads() []Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Payload(nil), n.sent...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
