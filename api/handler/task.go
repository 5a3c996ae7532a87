package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/api/transport"
	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/httpcontext"
	"github.com/fastygo/todolist/repository"
	taskUC "github.com/fastygo/todolist/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /task [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	filter, err := parseFilter(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	filter.UserID = principal.UserID

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Task counters for the current user
// @Tags tasks
// @Router /task/stats [get]
func (h *TaskHandler) Stats(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.Stats(stdCtx, principal.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Create task
// @Tags tasks
// @Router /task [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskCreateRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, principal.UserID, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /task/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, taskID(ctx), principal.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update task title, description or priority
// @Tags tasks
// @Router /task/{id} [patch]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var req transport.TaskUpdateRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, taskID(ctx), principal.UserID, taskUC.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Flip task completion
// @Tags tasks
// @Router /task/{id}/toggle [patch]
func (h *TaskHandler) Toggle(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Toggle(stdCtx, taskID(ctx), principal.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Delete task
// @Tags tasks
// @Router /task/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Remove(stdCtx, taskID(ctx), principal.UserID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

// parseFilter reads status, priority, limit and offset. Unknown enum values are rejected.
func parseFilter(args *fasthttp.Args) (repository.TaskFilter, error) {
	var filter repository.TaskFilter
	fields := map[string]string{}

	if raw := string(args.Peek("status")); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			fields["status"] = "status must be one of PENDING, COMPLETED"
		}
		filter.Status = status
	}
	if raw := string(args.Peek("priority")); raw != "" {
		priority, ok := domain.ParsePriority(raw)
		if !ok {
			fields["priority"] = "priority must be one of LOW, MEDIUM, HIGH"
		}
		filter.Priority = priority
	}
	if raw := string(args.Peek("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > repository.MaxListLimit {
			fields["limit"] = "limit must be between 1 and 500"
		}
		filter.Limit = limit
	}
	if raw := string(args.Peek("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			fields["offset"] = "offset must be a non-negative integer"
		}
		filter.Offset = offset
	}

	if len(fields) > 0 {
		return filter, domain.NewValidationError(fields)
	}
	return filter, nil
}
