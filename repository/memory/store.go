// Package memory keeps users and tasks in process memory. It mirrors the
// Postgres repositories closely enough to back local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/repository"
)

// Store owns both tables behind one lock so cascades and stats stay consistent.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	tasks map[string]domain.Task
	seq   map[string]uint64
	next  uint64
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		tasks: make(map[string]domain.Task),
		seq:   make(map[string]uint64),
		now:   time.Now,
	}
}

// Ping satisfies the health monitor.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Users() repository.UserRepository { return (*userRepository)(s) }

func (s *Store) Tasks() repository.TaskRepository { return (*taskRepository)(s) }

type userRepository Store

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, "") {
		return domain.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return domain.ErrDuplicateEmail
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.now()
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	for taskID, task := range r.tasks {
		if task.UserID == id {
			delete(r.tasks, taskID)
			delete(r.seq, taskID)
		}
	}
	return nil
}

func (r *userRepository) emailTaken(email, exceptID string) bool {
	for id, user := range r.users {
		if user.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

type taskRepository Store

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]domain.Task, 0)
	for _, task := range r.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.seq[a.ID] > r.seq[b.ID]
	})

	offset := max(filter.Offset, 0)
	if offset >= len(tasks) {
		return []domain.Task{}, nil
	}
	tasks = tasks[offset:]
	if filter.Limit > 0 {
		limit := min(filter.Limit, repository.MaxListLimit)
		if limit < len(tasks) {
			tasks = tasks[:limit]
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[task.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	task.Status = domain.StatusPending
	task.CompletedAt = nil
	now := r.now()
	task.CreatedAt, task.UpdatedAt = now, now

	r.next++
	r.seq[task.ID] = r.next
	r.tasks[task.ID] = *task
	out := *task
	return &out, nil
}

func (r *taskRepository) UpdateOwned(_ context.Context, id, ownerID string, patch repository.TaskPatch) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	task.UpdatedAt = r.now()
	r.tasks[id] = task
	return &task, nil
}

func (r *taskRepository) ToggleOwned(_ context.Context, id, ownerID string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	now := r.now()
	task.Toggle(now)
	task.UpdatedAt = now
	r.tasks[id] = task
	return &task, nil
}

func (r *taskRepository) DeleteOwned(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(id, ownerID); err != nil {
		return err
	}
	delete(r.tasks, id)
	delete(r.seq, id)
	return nil
}

func (r *taskRepository) Stats(_ context.Context, ownerID string) (domain.TaskStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats domain.TaskStats
	for _, task := range r.tasks {
		if task.UserID != ownerID {
			continue
		}
		stats.Total++
		switch task.Status {
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusPending:
			stats.Pending++
			if task.Priority == domain.PriorityHigh {
				stats.HighPriority++
			}
		}
	}
	return stats, nil
}

// owned must be called with the lock held.
func (r *taskRepository) owned(id, ownerID string) (domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if !task.OwnedBy(ownerID) {
		return domain.Task{}, domain.ErrTaskForbidden
	}
	return task, nil
}
