package models

import (
	"time"

	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationRejected  InvitationStatus = "REJECTED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

type WorkspaceInvitation struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	SenderID    uint64           `gorm:"not null;index" json:"sender_id"`
	GuestID     uint64           `gorm:"not null;index" json:"guest_id"`
	WorkspaceID uint64           `gorm:"not null;index" json:"workspace_id"`
	Role        WorkspaceRole    `gorm:"type:varchar(20);not null" json:"role"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Sender    User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Guest     User      `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

// WorkspaceInviteMark is the denormalized per-workspace view of a pending or
// declined invitation. It is only ever written in the same transaction as
// the WorkspaceInvitation row it mirrors.
type WorkspaceInviteMark struct {
	WorkspaceID  uint64           `gorm:"primarykey" json:"workspace_id"`
	InvitationID uint64           `gorm:"primarykey" json:"invitation_id"`
	GuestID      uint64           `gorm:"not null;index" json:"guest_id"`
	Status       InvitationStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
