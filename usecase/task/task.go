package task

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/logger"
	"github.com/fastygo/todolist/repository"
	"github.com/fastygo/todolist/usecase"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

var tracer = otel.Tracer("github.com/fastygo/todolist/usecase/task")

type CreateInput struct {
	Title       string
	Description string
	// Priority is optional; empty means MEDIUM.
	Priority string
}

// UpdateInput mirrors repository.TaskPatch with raw priority input.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *string
}

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, ownerID string, in CreateInput) (_ *domain.Task, err error) {
	ctx, span := tracer.Start(ctx, "task.Create", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer func() { usecase.EndSpan(span, err) }()

	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}

	title := strings.TrimSpace(in.Title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title is required"
	}
	checkLengths(fields, &title, &in.Description)

	priority := domain.PriorityMedium
	if strings.TrimSpace(in.Priority) != "" {
		p, ok := domain.ParsePriority(in.Priority)
		if !ok {
			fields["priority"] = "priority must be one of LOW, MEDIUM, HIGH"
		}
		priority = p
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		UserID:      ownerID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
	})
	if err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task created",
		zap.String("task_id", created.ID),
		zap.String("priority", string(created.Priority)),
	)
	return created, nil
}

// List returns the owner's tasks, highest priority first, newest first within a priority.
func (uc *UseCase) List(ctx context.Context, filter repository.TaskFilter) (_ []domain.Task, err error) {
	ctx, span := tracer.Start(ctx, "task.List", trace.WithAttributes(attribute.String("user.id", filter.UserID)))
	defer func() { usecase.EndSpan(span, err) }()

	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if filter.Limit > repository.MaxListLimit || filter.Limit < 0 || filter.Offset < 0 {
		return nil, domain.NewValidationError(map[string]string{
			"limit": "limit must be between 1 and 500 and offset must not be negative",
		})
	}
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return tasks, nil
}

// Get is the read side of the ownership gate.
func (uc *UseCase) Get(ctx context.Context, id, requesterID string) (_ *domain.Task, err error) {
	ctx, span := tracer.Start(ctx, "task.Get", trace.WithAttributes(attribute.String("task.id", id)))
	defer func() { usecase.EndSpan(span, err) }()

	if requesterID == "" {
		return nil, domain.ErrUnauthorized
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(requesterID) {
		uc.denied(ctx, "get", id)
		return nil, domain.ErrTaskForbidden
	}
	return task, nil
}

// Update applies only the supplied fields. Status and completion are owned by Toggle.
func (uc *UseCase) Update(ctx context.Context, id, requesterID string, in UpdateInput) (_ *domain.Task, err error) {
	ctx, span := tracer.Start(ctx, "task.Update", trace.WithAttributes(attribute.String("task.id", id)))
	defer func() { usecase.EndSpan(span, err) }()

	if requesterID == "" {
		return nil, domain.ErrUnauthorized
	}

	var patch repository.TaskPatch
	fields := map[string]string{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			fields["title"] = "title must not be empty"
		}
		patch.Title = &title
	}
	patch.Description = in.Description
	checkLengths(fields, patch.Title, patch.Description)
	if in.Priority != nil {
		p, ok := domain.ParsePriority(*in.Priority)
		if !ok {
			fields["priority"] = "priority must be one of LOW, MEDIUM, HIGH"
		}
		patch.Priority = &p
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	if patch.IsEmpty() {
		return uc.Get(ctx, id, requesterID)
	}

	updated, err := uc.tasks.UpdateOwned(ctx, id, requesterID, patch)
	if err != nil {
		uc.deniedOn(ctx, err, "update", id)
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task updated", zap.String("task_id", id))
	return updated, nil
}

// Toggle flips PENDING and COMPLETED; applying it twice restores the original state.
func (uc *UseCase) Toggle(ctx context.Context, id, requesterID string) (_ *domain.Task, err error) {
	ctx, span := tracer.Start(ctx, "task.Toggle", trace.WithAttributes(attribute.String("task.id", id)))
	defer func() { usecase.EndSpan(span, err) }()

	if requesterID == "" {
		return nil, domain.ErrUnauthorized
	}
	toggled, err := uc.tasks.ToggleOwned(ctx, id, requesterID)
	if err != nil {
		uc.deniedOn(ctx, err, "toggle", id)
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task toggled",
		zap.String("task_id", id),
		zap.String("status", string(toggled.Status)),
	)
	return toggled, nil
}

func (uc *UseCase) Remove(ctx context.Context, id, requesterID string) (err error) {
	ctx, span := tracer.Start(ctx, "task.Remove", trace.WithAttributes(attribute.String("task.id", id)))
	defer func() { usecase.EndSpan(span, err) }()

	if requesterID == "" {
		return domain.ErrUnauthorized
	}
	if err := uc.tasks.DeleteOwned(ctx, id, requesterID); err != nil {
		uc.deniedOn(ctx, err, "delete", id)
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("task removed", zap.String("task_id", id))
	return nil
}

func (uc *UseCase) Stats(ctx context.Context, ownerID string) (_ domain.TaskStats, err error) {
	ctx, span := tracer.Start(ctx, "task.Stats", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer func() { usecase.EndSpan(span, err) }()

	if ownerID == "" {
		return domain.TaskStats{}, domain.ErrUnauthorized
	}
	return uc.tasks.Stats(ctx, ownerID)
}

func (uc *UseCase) deniedOn(ctx context.Context, err error, op, id string) {
	if domain.IsDomainError(err, domain.ErrCodeForbidden) {
		uc.denied(ctx, op, id)
	}
}

func (uc *UseCase) denied(ctx context.Context, op, id string) {
	logger.WithRequestID(ctx, uc.logger).Warn("task access denied",
		zap.String("operation", op),
		zap.String("task_id", id),
	)
}

func checkLengths(fields map[string]string, title, description *string) {
	if title != nil && utf8.RuneCountInString(*title) > MaxTitleLength {
		fields["title"] = "title must be at most 200 characters"
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		fields["description"] = "description must be at most 2000 characters"
	}
}
