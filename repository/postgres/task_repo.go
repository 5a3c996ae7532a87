package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/repository"
)

const taskColumns = `id, user_id, title, description, priority, status, created_at, updated_at, completed_at`

type taskRepository struct {
	db DB
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(db DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2::text = '' OR status = $2)
	  AND ($3::text = '' OR priority = $3)
	ORDER BY CASE priority WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC,
		created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query,
		filter.UserID,
		string(filter.Status),
		string(filter.Priority),
		limitArg(filter.Limit),
		max(filter.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	task.Status = domain.StatusPending
	task.CompletedAt = nil

	const query = `
	INSERT INTO tasks (id, user_id, title, description, priority, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Priority),
		string(task.Status),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch repository.TaskPatch) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET title = COALESCE($3, title),
		description = COALESCE($4, description),
		priority = COALESCE($5, priority),
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	var priority *string
	if patch.Priority != nil {
		p := string(*patch.Priority)
		priority = &p
	}

	task, err := scanTask(r.db.QueryRow(ctx, query, id, ownerID, patch.Title, patch.Description, priority))
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, r.classifyMiss(ctx, id, ownerID)
	}
	return task, err
}

// ToggleOwned flips status and completed_at in one statement; CASE reads the pre-update row.
func (r *taskRepository) ToggleOwned(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET status = CASE WHEN status = 'COMPLETED' THEN 'PENDING' ELSE 'COMPLETED' END,
		completed_at = CASE WHEN status = 'COMPLETED' THEN NULL ELSE NOW() END,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, r.classifyMiss(ctx, id, ownerID)
	}
	return task, err
}

func (r *taskRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, ownerID)
	}
	return nil
}

// Stats computes all counters in one statement so they share a snapshot.
func (r *taskRepository) Stats(ctx context.Context, ownerID string) (domain.TaskStats, error) {
	const query = `
	SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		COUNT(*) FILTER (WHERE status = 'PENDING'),
		COUNT(*) FILTER (WHERE status = 'PENDING' AND priority = 'HIGH')
	FROM tasks
	WHERE user_id = $1
	`
	// COUNT(*) is bigint.
	var total, completed, pending, high int64
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&total, &completed, &pending, &high); err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return domain.TaskStats{
		Total:        int(total),
		Completed:    int(completed),
		Pending:      int(pending),
		HighPriority: int(high),
	}, nil
}

// classifyMiss explains why a conditional write touched no rows. It never mutates.
func (r *taskRepository) classifyMiss(ctx context.Context, id, ownerID string) error {
	const query = `SELECT user_id FROM tasks WHERE id = $1`
	var owner string
	if err := r.db.QueryRow(ctx, query, id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("lookup task owner: %w", err)
	}
	if owner != ownerID {
		return domain.ErrTaskForbidden
	}
	// Owner matches: the row was absent when the write ran.
	return domain.ErrTaskNotFound
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task      domain.Task
		priority  string
		status    string
		completed *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&priority,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	task.CompletedAt = completed
	return &task, nil
}
