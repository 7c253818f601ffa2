package models

import "time"

type NotificationType string

const (
	NotificationTaskCreation        NotificationType = "taskCreation"
	NotificationTaskDeletion        NotificationType = "taskDeletion"
	NotificationTaskUnassigned      NotificationType = "taskUnassigned"
	NotificationTaskUnassignedAdmin NotificationType = "taskUnassignedAdmin"
	NotificationWorkspaceUpdate     NotificationType = "workspaceUpdate"
	// NotificationWorkspaceDeletion is also the type recorded for a member
	// removed from a workspace, matching the historical wire value.
	NotificationWorkspaceDeletion   NotificationType = "workspaceDeletion"
	NotificationMembersRemoved      NotificationType = "membersRemoved"
	NotificationInvitation          NotificationType = "invitation"
	NotificationInvitationAccepted  NotificationType = "invitationAccepted"
	NotificationInvitationDeclined  NotificationType = "invitationDeclined"
)

// Notification is a fanout artifact: one row per recipient, written once by
// the notification service and only ever mutated to mark it read/viewed or
// bulk-deleted during cascade cleanup. TaskID/WorkspaceID/InvitationID are
// weak references used for cascade deletion only.
type Notification struct {
	ID     uint64           `gorm:"primarykey" json:"id"`
	Type   NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	UserID uint64           `gorm:"not null;index" json:"user_id"`
	// CreatorName is a snapshot of the emitting user's name at emission
	// time. Later username changes do not rewrite history.
	CreatorID    uint64     `gorm:"not null" json:"creator_id"`
	CreatorName  string     `gorm:"type:varchar(100)" json:"creator_name"`
	Message      string     `gorm:"type:text" json:"message"`
	TaskID       *uint64    `gorm:"index" json:"task_id,omitempty"`
	WorkspaceID  *uint64    `gorm:"index" json:"workspace_id,omitempty"`
	InvitationID *uint64    `gorm:"index" json:"invitation_id,omitempty"`
	Read         bool       `gorm:"not null;default:false" json:"read"`
	ViewedAt     *time.Time `json:"viewed_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
