package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/repository"
)

var taskCols = []string{"id", "user_id", "title", "description", "priority", "status", "created_at", "updated_at", "completed_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTaskRepository_List_PassesFiltersAndLimit(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	now := time.Now()
	done := now.Add(-time.Minute)
	rows := pgxmock.NewRows(taskCols).
		AddRow("t1", "u1", "Ship", "", "HIGH", "COMPLETED", now, now, &done)

	mock.ExpectQuery(`SELECT .+ FROM tasks\s+WHERE user_id = \$1`).
		WithArgs("u1", "COMPLETED", "HIGH", 10, 0).
		WillReturnRows(rows)

	tasks, err := repo.List(context.Background(), repository.TaskFilter{
		UserID:   "u1",
		Status:   domain.StatusCompleted,
		Priority: domain.PriorityHigh,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, domain.StatusCompleted, tasks[0].Status)
	require.NotNil(t, tasks[0].CompletedAt)
	assert.True(t, tasks[0].CompletedAt.Equal(done))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_EmptyIsNotNil(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`FROM tasks`).
		WithArgs("u1", "", "", nil, 0).
		WillReturnRows(pgxmock.NewRows(taskCols))

	tasks, err := repo.List(context.Background(), repository.TaskFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepository_Create_DefaultsToPendingMedium(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(pgxmock.AnyArg(), "u1", "Buy milk", "", "MEDIUM", "PENDING").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	task, err := repo.Create(context.Background(), &domain.Task{UserID: "u1", Title: "Buy milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Nil(t, task.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_UnknownOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(pgxmock.AnyArg(), "ghost", "Buy milk", "", "MEDIUM", "PENDING").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"})

	_, err := repo.Create(context.Background(), &domain.Task{UserID: "ghost", Title: "Buy milk"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ToggleOwned(t *testing.T) {
	now := time.Now()

	t.Run("owner flips status", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectQuery(`UPDATE tasks\s+SET status = CASE`).
			WithArgs("t1", "u1").
			WillReturnRows(pgxmock.NewRows(taskCols).
				AddRow("t1", "u1", "Buy milk", "", "HIGH", "COMPLETED", now, now, &now))

		task, err := repo.ToggleOwned(context.Background(), "t1", "u1")
		require.NoError(t, err)
		assert.True(t, task.IsCompleted())
		assert.NotNil(t, task.CompletedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectQuery(`UPDATE tasks`).
			WithArgs("t1", "u2").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT user_id FROM tasks WHERE id = \$1`).
			WithArgs("t1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("u1"))

		_, err := repo.ToggleOwned(context.Background(), "t1", "u2")
		assert.ErrorIs(t, err, domain.ErrTaskForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task is not found", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectQuery(`UPDATE tasks`).
			WithArgs("nope", "u1").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`SELECT user_id FROM tasks`).
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ToggleOwned(context.Background(), "nope", "u1")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskRepository_UpdateOwned_OnlySuppliedFields(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	now := time.Now()
	title := "Renamed"
	high := domain.PriorityHigh
	mock.ExpectQuery(`UPDATE tasks\s+SET title = COALESCE\(\$3, title\)`).
		WithArgs("t1", "u1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow("t1", "u1", "Renamed", "keep", "HIGH", "PENDING", now, now, nil))

	task, err := repo.UpdateOwned(context.Background(), "t1", "u1", repository.TaskPatch{Title: &title, Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", task.Title)
	assert.Equal(t, "keep", task.Description)
	assert.Nil(t, task.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_DeleteOwned(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
			WithArgs("t1", "u1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteOwned(context.Background(), "t1", "u1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign task untouched", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectExec(`DELETE FROM tasks`).
			WithArgs("t1", "u2").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectQuery(`SELECT user_id FROM tasks`).
			WithArgs("t1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("u1"))

		err := repo.DeleteOwned(context.Background(), "t1", "u2")
		assert.ErrorIs(t, err, domain.ErrTaskForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		mock := newMock(t)
		repo := NewTaskRepository(mock)

		mock.ExpectExec(`DELETE FROM tasks`).
			WithArgs("t1", "u1").
			WillReturnError(errors.New("connection reset"))

		err := repo.DeleteOwned(context.Background(), "t1", "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete task")
		assert.False(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	})
}

func TestTaskRepository_Stats(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"total", "completed", "pending", "high"}).
			AddRow(int64(5), int64(2), int64(3), int64(1)))

	stats, err := repo.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{Total: 5, Completed: 2, Pending: 3, HighPriority: 1}, stats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Stats_EmptyOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"total", "completed", "pending", "high"}).
			AddRow(int64(0), int64(0), int64(0), int64(0)))

	stats, err := repo.Stats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{}, stats)
	assert.Equal(t, stats.Total, stats.Completed+stats.Pending)
	require.NoError(t, mock.ExpectationsWereMet())
}
