package task

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/middleware"
	"github.com/marginalia-app/core/internal/pkg/pagination"
	"github.com/marginalia-app/core/internal/pkg/response"
	"github.com/marginalia-app/core/internal/pkg/taskqueue"
)

// Handler exposes the background task queue to operators: inspecting what ran
// and pruning entries whose dedup slot is blocking a re-run.
type Handler struct {
	tasks *taskqueue.Service
}

func NewHandler(tasks *taskqueue.Service) *Handler {
	return &Handler{tasks: tasks}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/tasks", middleware.Auth(), h.List)
	r.DELETE("/tasks/:id", middleware.Auth(), h.Delete)
}

// List handles GET /tasks with optional type and status filters, newest first.
func (h *Handler) List(c *gin.Context) {
	query := pagination.FromContext(c)

	var taskType *string
	if t := c.Query("type"); t != "" {
		taskType = &t
	}

	var status *taskqueue.TaskStatus
	if s := c.Query("status"); s != "" {
		parsed, ok := parseStatus(s)
		if !ok {
			response.BadRequest(c, "invalid task status")
			return
		}
		status = &parsed
	}

	tasks, total, err := h.tasks.List(c.Request.Context(), query.Page, query.Size, taskType, status)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	totalPage := int((total + int64(query.Size) - 1) / int64(query.Size))
	response.Paged(c, tasks, response.Pagination{
		Total:       total,
		CurrentPage: query.Page,
		TotalPage:   totalPage,
		Size:        query.Size,
		HasNextPage: query.Page < totalPage,
	})
}

// Delete handles DELETE /tasks/:id. Removing a task also releases its dedup
// slot, so the same work can be enqueued again immediately.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.tasks.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func parseStatus(raw string) (taskqueue.TaskStatus, bool) {
	switch status := taskqueue.TaskStatus(raw); status {
	case taskqueue.TaskPending, taskqueue.TaskRunning, taskqueue.TaskCompleted,
		taskqueue.TaskFailed, taskqueue.TaskCancelled:
		return status, true
	default:
		return "", false
	}
}
