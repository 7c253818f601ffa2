package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hokaccha/workhub-api/internal/dto"
	apierrors "github.com/hokaccha/workhub-api/internal/errors"
	"github.com/hokaccha/workhub-api/internal/middleware"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/services"
	"github.com/hokaccha/workhub-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks of a workspace, paginated.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := strconv.ParseUint(c.Query("workspace_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workspace_id")
		return
	}

	params := utils.GetPaginationParams(c)

	response, err := h.taskService.ListTasks(c.Request.Context(), userID, workspaceID, params.Page, params.Limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListArchived returns the current user's archived tasks across workspaces.
func (h *TaskHandler) ListArchived(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	response, err := h.taskService.ListArchived(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTask returns a specific task by ID.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in a workspace.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title         string     `json:"title" binding:"required"`
		Description   string     `json:"description"`
		Status        string     `json:"status"`
		Priority      string     `json:"priority"`
		EstimatedTime string     `json:"estimated_time"`
		Date          *time.Time `json:"date"`
		Deadline      *time.Time `json:"deadline"`
		WorkspaceID   uint64     `json:"workspace_id" binding:"required"`
		AssignedTo    []uint64   `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        models.TaskStatus(req.Status),
		Priority:      models.TaskPriority(req.Priority),
		EstimatedTime: req.EstimatedTime,
		Date:          req.Date,
		Deadline:      req.Deadline,
		WorkspaceID:   req.WorkspaceID,
		AssignedTo:    req.AssignedTo,
		CreatorID:     userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. Each changed field is authorized
// independently and the whole request fails on the first denied field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type UpdateTaskRequest struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Status        *string    `json:"status"`
		Priority      *string    `json:"priority"`
		EstimatedTime *string    `json:"estimated_time"`
		Date          *time.Time `json:"date"`
		Deadline      *time.Time `json:"deadline"`
		ClearDeadline bool       `json:"clear_deadline"`
		OwnerID       *uint64    `json:"owner_id"`
		WorkspaceID   *uint64    `json:"workspace_id"`
		AssignedTo    *[]uint64  `json:"assigned_to"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
		Date:          req.Date,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
		OwnerID:       req.OwnerID,
		WorkspaceID:   req.WorkspaceID,
		AssignedTo:    req.AssignedTo,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task and its notifications.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrNotWorkspaceMember):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrUserNotFoundInTask):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
