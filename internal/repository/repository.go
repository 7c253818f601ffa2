package repository

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListByWorkspace returns every task in a workspace with assignments loaded
	ListByWorkspace(workspaceID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete hard deletes a task along with its assignments
	Delete(id uint64) error

	// DeleteByWorkspace hard deletes a workspace's remaining tasks and assignments
	DeleteByWorkspace(workspaceID uint64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(taskID uint64, userIDs []uint64) error

	// ReassignOwnedTasks moves all tasks a user owns in one workspace to another
	ReassignOwnedTasks(workspaceID, ownerID, targetWorkspaceID uint64) error

	// CountMembersByIDs counts how many of the given user IDs are workspace members
	CountMembersByIDs(userIDs []uint64, workspaceID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	WorkspaceID *uint64
	OwnerID     *uint64
	Status      *models.TaskStatus
	Archived    bool
	Page        int
	PageSize    int
}

// WorkspaceRepository defines the interface for workspace data access
type WorkspaceRepository interface {
	// Create creates a new workspace
	Create(ws *models.Workspace) error

	// FindByID finds a workspace by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Workspace, error)

	// FindDefaultForUser finds the user's default workspace
	FindDefaultForUser(userID uint64) (*models.Workspace, error)

	// Update updates a workspace
	Update(ws *models.Workspace) error

	// Delete deletes a workspace, its roster and its invitation marks
	Delete(id uint64) error

	// AddMember adds a member to a workspace
	AddMember(member *models.WorkspaceMember) error

	// RemoveMember removes a member from a workspace
	RemoveMember(workspaceID, userID uint64) error

	// UpdateMemberRole changes an existing member's workspace role
	UpdateMemberRole(workspaceID, userID uint64, role models.WorkspaceRole) error

	// FindMember finds a specific workspace member
	FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// ListMembers lists all members of a workspace
	ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error)

	// ListMembersByUserID lists all workspaces a user is a member of
	ListMembersByUserID(userID uint64) ([]models.WorkspaceMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithDefaultWorkspace creates a user, their default workspace,
	// and the superadmin membership within a single transaction.
	CreateWithDefaultWorkspace(user *models.User, ws *models.Workspace, member *models.WorkspaceMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// SetContact upserts a contact edge; blocked flips between the two sets
	SetContact(userID, contactID uint64, blocked bool) error

	// RemoveContact removes a contact edge regardless of its blocked flag
	RemoveContact(userID, contactID uint64) error

	// ListContacts lists a user's contact edges with the contact preloaded
	ListContacts(userID uint64) ([]models.UserContact, error)

	// ListExpiredVisitors returns visitor accounts past their expiry
	ListExpiredVisitors(now time.Time) ([]models.User, error)

	// Delete hard deletes a user
	Delete(id uint64) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch persists one notification row per recipient
	CreateBatch(notifications []models.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(userID uint64) ([]models.Notification, error)

	// MarkRead marks one of the user's notifications as read
	MarkRead(id, userID uint64) error

	// MarkAllViewed stamps ViewedAt on the user's unviewed notifications
	MarkAllViewed(userID uint64, viewedAt time.Time) error

	// DeleteByTask deletes all notifications referencing a task
	DeleteByTask(taskID uint64) error

	// DeleteByTaskAndUsers deletes a task's notifications for specific recipients
	DeleteByTaskAndUsers(taskID uint64, userIDs []uint64) error

	// DeleteByWorkspace deletes all notifications referencing a workspace
	DeleteByWorkspace(workspaceID uint64) error

	// DeleteByWorkspaceAndUsers deletes a workspace's notifications for specific recipients
	DeleteByWorkspaceAndUsers(workspaceID uint64, userIDs []uint64) error

	// DeleteByUser deletes all notifications addressed to a user
	DeleteByUser(userID uint64) error
}

// InvitationRepository defines the interface for invitation data access.
// Every write also maintains the workspace's invitation mark so the
// denormalized view can never drift from the invitation store.
type InvitationRepository interface {
	// CreateWithMark creates an invitation and its pending mark atomically
	CreateWithMark(inv *models.WorkspaceInvitation) error

	// UpdateStatusWithMark transitions an invitation and syncs its mark atomically
	UpdateStatusWithMark(inv *models.WorkspaceInvitation, status models.InvitationStatus) error

	// FindByID finds an invitation by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.WorkspaceInvitation, error)

	// FindByGuestAndWorkspace finds the most recent invitation for a guest in a workspace
	FindByGuestAndWorkspace(guestID, workspaceID uint64) (*models.WorkspaceInvitation, error)

	// ListByGuest lists invitations addressed to a guest
	ListByGuest(guestID uint64) ([]models.WorkspaceInvitation, error)

	// DeletePendingByWorkspaceAndGuests removes pending invitations and their marks
	DeletePendingByWorkspaceAndGuests(workspaceID uint64, guestIDs []uint64) error

	// DeleteByWorkspace removes all invitations and marks of a workspace
	DeleteByWorkspace(workspaceID uint64) error
}
