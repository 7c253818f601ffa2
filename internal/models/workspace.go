package models

import (
	"time"

	"gorm.io/gorm"
)

type Workspace struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	CreatorID   uint64         `gorm:"not null;index" json:"creator_id"`
	IsDefault   bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members         []WorkspaceMember     `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Tasks           []Task                `gorm:"foreignKey:WorkspaceID" json:"tasks,omitempty"`
	InvitationMarks []WorkspaceInviteMark `gorm:"foreignKey:WorkspaceID" json:"invitation_status,omitempty"`
}

// MemberIDs returns the user ids of the loaded members.
func (w *Workspace) MemberIDs() []uint64 {
	ids := make([]uint64, 0, len(w.Members))
	for _, m := range w.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
