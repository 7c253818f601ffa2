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

type ContactHandler struct {
	userService *services.UserService
}

func NewContactHandler(userService *services.UserService) *ContactHandler {
	return &ContactHandler{
		userService: userService,
	}
}

// ListContacts returns the current user's contacts and blocked users.
func (h *ContactHandler) ListContacts(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	lists, err := h.userService.ListContacts(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list contacts")
		return
	}

	contacts := make([]dto.UserDTO, len(lists.Contacts))
	for i, u := range lists.Contacts {
		contacts[i] = dto.ToUserDTO(u)
	}
	blocked := make([]dto.UserDTO, len(lists.Blocked))
	for i, u := range lists.Blocked {
		blocked[i] = dto.ToUserDTO(u)
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": contacts,
		"blocked":  blocked,
	})
}

// AddContact adds a user to the contact list, unblocking them if needed.
func (h *ContactHandler) AddContact(c *gin.Context) {
	h.setEdge(c, false)
}

// BlockUser moves a user to the blocked list.
func (h *ContactHandler) BlockUser(c *gin.Context) {
	h.setEdge(c, true)
}

// RemoveContact removes a contact or blocked user entirely.
func (h *ContactHandler) RemoveContact(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	contactID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.RemoveContact(userID, contactID); err != nil {
		apierrors.InternalError(c, "Failed to remove contact")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contact removed",
	})
}

func (h *ContactHandler) setEdge(c *gin.Context, blocked bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	contactID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var op func(uint64, uint64) error
	if blocked {
		op = h.userService.BlockUser
	} else {
		op = h.userService.AddContact
	}

	if err := op(userID, contactID); err != nil {
		switch {
		case errors.Is(err, services.ErrSelfContact):
			apierrors.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to update contact")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contact updated",
	})
}
