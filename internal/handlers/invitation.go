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

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
	}
}

// ListInvitations returns the invitations addressed to the current user.
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	invitations, err := h.invitationService.ListForGuest(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invitations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invitations": dto.ToInvitationDTOs(invitations),
	})
}

// AcceptInvitation joins the current user to the inviting workspace.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	ws, err := h.invitationService.Accept(c.Request.Context(), invitationID, userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

// DeclineInvitation rejects an invitation.
func (h *InvitationHandler) DeclineInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.invitationService.Decline(invitationID, userID); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation declined",
	})
}

// CancelInvitation retires a pending invitation.
func (h *InvitationHandler) CancelInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invitation ID")
		return
	}

	if err := h.invitationService.Cancel(invitationID, userID); err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation cancelled",
	})
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrInvitationNotForYou):
		apierrors.NotFound(c, services.ErrInvitationNotFound.Error())
	case errors.Is(err, services.ErrInvitationNotPending),
		errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvitationNotYours):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvitationWorkspaceGone):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
