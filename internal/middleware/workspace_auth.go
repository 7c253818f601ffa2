package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hokaccha/workhub-api/internal/constants"
	"github.com/hokaccha/workhub-api/internal/database"
	"github.com/hokaccha/workhub-api/internal/models"
)

// RequireWorkspaceAccess checks if the user is a member of the workspace
func RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get workspace ID from URL parameter
		wsIDStr := c.Param("id")
		wsID, err := strconv.ParseUint(wsIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid workspace ID",
			})
			c.Abort()
			return
		}

		// Get current user ID
		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		// Check if workspace exists
		var ws models.Workspace
		if err := database.GetDB().First(&ws, wsID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Workspace not found",
			})
			c.Abort()
			return
		}

		// Check if user is a member
		var member models.WorkspaceMember
		err = database.GetDB().Where("workspace_id = ? AND user_id = ?", wsID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking workspace existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Workspace not found",
			})
			c.Abort()
			return
		}

		// Store workspace and membership in context
		c.Set(constants.ContextKeyWorkspace, ws)
		c.Set(constants.ContextKeyWorkspaceMember, member)
		c.Next()
	}
}

// RequireWorkspaceSuperadmin checks if the user is a superadmin of the workspace
func RequireWorkspaceSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get membership from context (set by RequireWorkspaceAccess)
		memberInterface, exists := c.Get(constants.ContextKeyWorkspaceMember)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Workspace access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.WorkspaceMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid workspace member data",
			})
			c.Abort()
			return
		}

		if member.Role != models.WorkspaceRoleSuperadmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only workspace superadmins can perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
