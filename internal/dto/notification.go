package dto

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID           uint64                  `json:"id"`
	Type         models.NotificationType `json:"type"`
	CreatorID    uint64                  `json:"creator_id"`
	CreatorName  string                  `json:"creator_name"`
	Message      string                  `json:"message"`
	TaskID       *uint64                 `json:"task_id,omitempty"`
	WorkspaceID  *uint64                 `json:"workspace_id,omitempty"`
	InvitationID *uint64                 `json:"invitation_id,omitempty"`
	Read         bool                    `json:"read"`
	CreatedAt    time.Time               `json:"created_at"`
}

// NotificationListDTO buckets notifications into the two feed sections.
type NotificationListDTO struct {
	New     []NotificationDTO `json:"new"`
	Earlier []NotificationDTO `json:"earlier"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           n.ID,
		Type:         n.Type,
		CreatorID:    n.CreatorID,
		CreatorName:  n.CreatorName,
		Message:      n.Message,
		TaskID:       n.TaskID,
		WorkspaceID:  n.WorkspaceID,
		InvitationID: n.InvitationID,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	dtos := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		dtos[i] = ToNotificationDTO(n)
	}
	return dtos
}
