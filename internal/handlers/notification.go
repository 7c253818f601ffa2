package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hokaccha/workhub-api/internal/dto"
	apierrors "github.com/hokaccha/workhub-api/internal/errors"
	"github.com/hokaccha/workhub-api/internal/middleware"
	"github.com/hokaccha/workhub-api/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications returns the current user's feed, bucketed into the new
// and earlier sections.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	buckets, err := h.notificationService.List(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, dto.NotificationListDTO{
		New:     dto.ToNotificationDTOs(buckets.New),
		Earlier: dto.ToNotificationDTOs(buckets.Earlier),
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

// MarkAllViewed stamps every unviewed notification of the current user.
func (h *NotificationHandler) MarkAllViewed(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.notificationService.MarkAllViewed(userID); err != nil {
		apierrors.InternalError(c, "Failed to mark notifications viewed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifications marked as viewed",
	})
}
