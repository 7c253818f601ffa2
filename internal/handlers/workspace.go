package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hokaccha/workhub-api/internal/authz"
	"github.com/hokaccha/workhub-api/internal/dto"
	apierrors "github.com/hokaccha/workhub-api/internal/errors"
	"github.com/hokaccha/workhub-api/internal/middleware"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/services"
)

type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
	}
}

// ListWorkspaces returns the workspaces the current user belongs to.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.workspaceService.ListForUser(userID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	workspaces := make([]dto.WorkspaceWithRoleDTO, len(memberships))
	for i, m := range memberships {
		workspaces[i] = dto.ToWorkspaceWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetWorkspace returns a workspace with its roster and invitation markers.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workspace ID")
		return
	}

	ws, err := h.workspaceService.GetWorkspace(workspaceID, userID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	role, _ := authz.RoleOf(ws.Members, userID)
	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*ws, role))
}

// CreateWorkspace creates a new workspace owned by the current user.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateWorkspaceRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.CreateWorkspace(services.CreateWorkspaceInput{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   userID,
	})
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*ws))
}

// UpdateWorkspace applies a superadmin edit to details and roster.
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workspace ID")
		return
	}

	type MemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role"`
	}
	type UpdateWorkspaceRequest struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Members     *[]MemberRequest `json:"members"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateWorkspaceInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Members != nil {
		members := make([]services.MemberInput, len(*req.Members))
		for i, m := range *req.Members {
			members[i] = services.MemberInput{
				UserID: m.UserID,
				Role:   models.WorkspaceRole(m.Role),
			}
		}
		input.Members = &members
	}

	ws, err := h.workspaceService.UpdateWorkspace(c.Request.Context(), workspaceID, userID, input)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	role, _ := authz.RoleOf(ws.Members, userID)
	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*ws, role))
}

// DeleteWorkspace deletes a workspace and cascades its data.
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workspace ID")
		return
	}

	if err := h.workspaceService.DeleteWorkspace(c.Request.Context(), workspaceID, userID); err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Workspace deleted successfully",
	})
}

// ExitWorkspace removes the current user from a workspace.
func (h *WorkspaceHandler) ExitWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid workspace ID")
		return
	}

	if err := h.workspaceService.ExitWorkspace(c.Request.Context(), workspaceID, userID); err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left workspace successfully",
	})
}

func respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrNotAMember):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceTitleEmpty),
		errors.Is(err, services.ErrInvalidMemberRole),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
