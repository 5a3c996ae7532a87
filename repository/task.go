package repository

import (
	"context"

	"github.com/fastygo/todolist/domain"
)

// MaxListLimit caps page sizes requested through TaskFilter.Limit.
const MaxListLimit = 500

// TaskFilter narrows a listing to one owner. Empty Status/Priority match everything;
// both set are combined with AND. Limit <= 0 means no limit.
type TaskFilter struct {
	UserID   string
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Limit    int
	Offset   int
}

// TaskPatch lists the fields a generic update may touch; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil
}

// TaskRepository persists tasks. The *Owned methods apply the mutation only when
// ownerID owns the task and report domain.ErrTaskNotFound or domain.ErrTaskForbidden otherwise.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch TaskPatch) (*domain.Task, error)
	ToggleOwned(ctx context.Context, id, ownerID string) (*domain.Task, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
	Stats(ctx context.Context, ownerID string) (domain.TaskStats, error)
}
