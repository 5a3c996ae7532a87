package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/repository"
)

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: email, PasswordHash: "h"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestStore_UserEmailUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	err := s.Users().Create(ctx, &domain.User{Email: "alice@example.com", Name: "Other"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	bob.Email = alice.Email
	assert.ErrorIs(t, s.Users().Update(ctx, bob), domain.ErrDuplicateEmail)
}

func TestStore_ListOrdersByPriorityThenNewest(t *testing.T) {
	s := NewStore()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com")

	mk := func(title string, p domain.TaskPriority) {
		_, err := s.Tasks().Create(ctx, &domain.Task{UserID: u.ID, Title: title, Priority: p})
		require.NoError(t, err)
	}
	mk("low-old", domain.PriorityLow)
	mk("high-old", domain.PriorityHigh)
	mk("medium", domain.PriorityMedium)
	mk("high-new", domain.PriorityHigh)

	tasks, err := s.Tasks().List(ctx, repository.TaskFilter{UserID: u.ID})
	require.NoError(t, err)

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"high-new", "high-old", "medium", "low-old"}, titles)

	page, err := s.Tasks().List(ctx, repository.TaskFilter{UserID: u.ID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "high-old", page[0].Title)
}

func TestStore_DeleteUserCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com")
	task, err := s.Tasks().Create(ctx, &domain.Task{UserID: u.ID, Title: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, u.ID))
	_, err = s.Tasks().GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, s.Users().Delete(ctx, u.ID), domain.ErrUserNotFound)
}

func TestStore_CreateTaskRequiresOwner(t *testing.T) {
	s := NewStore()
	_, err := s.Tasks().Create(context.Background(), &domain.Task{UserID: "ghost", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
