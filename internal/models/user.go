package models

import (
	"time"

	"gorm.io/gorm"
)

// GlobalRole is the account-level role. It is orthogonal to WorkspaceRole:
// a global admin with no membership in a workspace has no rights inside it.
type GlobalRole string

const (
	GlobalRoleUser       GlobalRole = "user"
	GlobalRoleAdmin      GlobalRole = "admin"
	GlobalRoleSuperadmin GlobalRole = "superadmin"
	GlobalRoleVisitor    GlobalRole = "visitor"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         GlobalRole     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	ExpiresAt    *time.Time     `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	OwnedTasks  []Task            `gorm:"foreignKey:UserID" json:"-"`
	Assignments []TaskAssignment  `gorm:"foreignKey:UserID" json:"-"`
	Workspaces  []WorkspaceMember `gorm:"foreignKey:UserID" json:"-"`
	Contacts    []UserContact     `gorm:"foreignKey:UserID" json:"-"`
}

// IsVisitor reports whether the account is an ephemeral demo account.
func (u *User) IsVisitor() bool {
	return u.Role == GlobalRoleVisitor
}

// UserContact is one edge of a user's contact graph. A contact and a block
// share the row, so a user id can never be in both sets at once.
type UserContact struct {
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	ContactID uint64    `gorm:"primarykey" json:"contact_id"`
	Blocked   bool      `gorm:"not null;default:false" json:"blocked"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Contact User `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
}
