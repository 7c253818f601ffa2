package dto

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
)

// WorkspaceDTO represents a workspace in API responses
type WorkspaceDTO struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   uint64 `json:"creator_id"`
	IsDefault   bool   `json:"is_default"`
}

// WorkspaceWithRoleDTO represents a workspace with the user's role
type WorkspaceWithRoleDTO struct {
	WorkspaceDTO
	Role models.WorkspaceRole `json:"role"`
}

// WorkspaceMemberDTO represents a member in a workspace roster
type WorkspaceMemberDTO struct {
	UserID   uint64               `json:"user_id"`
	Username string               `json:"username"`
	Email    string               `json:"email"`
	Role     models.WorkspaceRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
}

// InvitationMarkDTO mirrors the per-workspace invitation markers so a roster
// view can show who is invited and who declined.
type InvitationMarkDTO struct {
	InvitationID uint64                  `json:"invitation_id"`
	GuestID      uint64                  `json:"guest_id"`
	Status       models.InvitationStatus `json:"status"`
}

// WorkspaceDetailDTO represents detailed workspace information
type WorkspaceDetailDTO struct {
	WorkspaceDTO
	Members          []WorkspaceMemberDTO `json:"members"`
	InvitationStatus []InvitationMarkDTO  `json:"invitation_status"`
	YourRole         models.WorkspaceRole `json:"your_role"`
}

// ToWorkspaceDTO converts a Workspace model to WorkspaceDTO
func ToWorkspaceDTO(ws models.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:          ws.ID,
		Title:       ws.Title,
		Description: ws.Description,
		CreatorID:   ws.CreatorID,
		IsDefault:   ws.IsDefault,
	}
}

// ToWorkspaceWithRoleDTO converts a membership to a workspace DTO with role
func ToWorkspaceWithRoleDTO(member models.WorkspaceMember) WorkspaceWithRoleDTO {
	return WorkspaceWithRoleDTO{
		WorkspaceDTO: ToWorkspaceDTO(member.Workspace),
		Role:         member.Role,
	}
}

// ToWorkspaceMemberDTO converts a member to DTO
func ToWorkspaceMemberDTO(member models.WorkspaceMember) WorkspaceMemberDTO {
	return WorkspaceMemberDTO{
		UserID:   member.UserID,
		Username: member.Username,
		Email:    member.Email,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToWorkspaceDetailDTO converts a workspace with roster to a detailed DTO
func ToWorkspaceDetailDTO(ws models.Workspace, yourRole models.WorkspaceRole) WorkspaceDetailDTO {
	members := make([]WorkspaceMemberDTO, len(ws.Members))
	for i, member := range ws.Members {
		members[i] = ToWorkspaceMemberDTO(member)
	}

	marks := make([]InvitationMarkDTO, len(ws.InvitationMarks))
	for i, mark := range ws.InvitationMarks {
		marks[i] = InvitationMarkDTO{
			InvitationID: mark.InvitationID,
			GuestID:      mark.GuestID,
			Status:       mark.Status,
		}
	}

	return WorkspaceDetailDTO{
		WorkspaceDTO:     ToWorkspaceDTO(ws),
		Members:          members,
		InvitationStatus: marks,
		YourRole:         yourRole,
	}
}
