package models

import "time"

// WorkspaceRole is scoped to a single workspace. It never substitutes for,
// and is never substituted by, the account-level GlobalRole.
type WorkspaceRole string

const (
	WorkspaceRoleMember     WorkspaceRole = "member"
	WorkspaceRoleAdmin      WorkspaceRole = "admin"
	WorkspaceRoleSuperadmin WorkspaceRole = "superadmin"
)

// Elevated reports whether the role grants admin-level rights in the workspace.
func (r WorkspaceRole) Elevated() bool {
	return r == WorkspaceRoleAdmin || r == WorkspaceRoleSuperadmin
}

type WorkspaceMember struct {
	WorkspaceID uint64        `gorm:"primarykey" json:"workspace_id"`
	UserID      uint64        `gorm:"primarykey" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(20);not null" json:"role"`
	// Username and Email are snapshots taken when the member joined,
	// kept so rosters render without joining the users table.
	Username string    `gorm:"type:varchar(100)" json:"username"`
	Email    string    `gorm:"type:varchar(255)" json:"email"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
