package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusArchived   TaskStatus = "Archived"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
	TaskPriorityUrgent TaskPriority = "Urgent"
)

type Task struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        TaskStatus     `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	Priority      TaskPriority   `gorm:"type:varchar(10);not null;default:'Low'" json:"priority"`
	EstimatedTime string         `gorm:"type:varchar(50)" json:"estimated_time"`
	Date          *time.Time     `json:"date"`
	Deadline      *time.Time     `json:"deadline"`
	ArchiveDate   *time.Time     `json:"archive_date"`
	UserID        uint64         `gorm:"not null;index" json:"user_id"`
	WorkspaceID   uint64         `gorm:"not null;index" json:"workspace_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner       User             `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Workspace   Workspace        `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// AssignedIDs returns the user ids of the loaded assignments.
func (t *Task) AssignedIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

// IsAssigned reports whether the user is in the loaded assignment set.
func (t *Task) IsAssigned(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
