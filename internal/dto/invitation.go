package dto

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
)

// InvitationDTO represents an invitation addressed to the current user
type InvitationDTO struct {
	ID        uint64                  `json:"id"`
	Sender    UserDTO                 `json:"sender"`
	Workspace WorkspaceDTO            `json:"workspace"`
	Role      models.WorkspaceRole    `json:"role"`
	Status    models.InvitationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// ToInvitationDTO converts an invitation with its relations preloaded
func ToInvitationDTO(inv models.WorkspaceInvitation) InvitationDTO {
	return InvitationDTO{
		ID:        inv.ID,
		Sender:    ToUserDTO(inv.Sender),
		Workspace: ToWorkspaceDTO(inv.Workspace),
		Role:      inv.Role,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
	}
}

// ToInvitationDTOs converts a slice of invitations
func ToInvitationDTOs(invitations []models.WorkspaceInvitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = ToInvitationDTO(inv)
	}
	return dtos
}
