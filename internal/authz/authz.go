// Package authz decides whether an actor may perform an action inside a
// workspace. Decisions are derived from the workspace's membership roster
// on every call; the account-level role on User plays no part here.
package authz

import (
	"github.com/hokaccha/workhub-api/internal/models"
)

// Field identifies one independently authorized task mutation.
type Field string

const (
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldStatus        Field = "status"
	FieldArchive       Field = "archive"
	FieldEstimatedTime Field = "estimatedTime"
	FieldDate          Field = "date"
	FieldOwner         Field = "owner"
	FieldWorkspace     Field = "workspace"
	FieldPriority      Field = "priority"
	FieldDeadline      Field = "deadline"
	FieldAssignees     Field = "assignees"
)

// restrictedForAssignees are the fields an assignee may only "change" to the
// value they already hold. Clients resend unchanged fields, so a no-op write
// on a restricted field must not be rejected.
var restrictedForAssignees = map[Field]bool{
	FieldOwner:     true,
	FieldWorkspace: true,
	FieldPriority:  true,
	FieldDeadline:  true,
	FieldArchive:   true,
}

// RoleOf resolves a user's role within a roster. The second return value is
// false when the user is not a member.
func RoleOf(members []models.WorkspaceMember, userID uint64) (models.WorkspaceRole, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// IsElevated reports whether the user holds admin or superadmin in the roster.
func IsElevated(members []models.WorkspaceMember, userID uint64) bool {
	role, ok := RoleOf(members, userID)
	return ok && role.Elevated()
}

// IsSuperadmin reports whether the user holds superadmin in the roster.
func IsSuperadmin(members []models.WorkspaceMember, userID uint64) bool {
	role, ok := RoleOf(members, userID)
	return ok && role == models.WorkspaceRoleSuperadmin
}

// CanMutateField evaluates a single field mutation against the roster,
// first rule wins:
//
//  1. workspace admin/superadmin: allow
//  2. task owner: allow
//  3. assignee: allow, except restricted fields unless the write is a no-op
//  4. deny
func CanMutateField(actorID uint64, members []models.WorkspaceMember, task *models.Task, field Field, unchanged bool) bool {
	if IsElevated(members, actorID) {
		return true
	}
	if task.UserID == actorID {
		return true
	}
	if task.IsAssigned(actorID) {
		if restrictedForAssignees[field] {
			return unchanged
		}
		return true
	}
	return false
}

// CanDeleteTask requires owner, admin, or superadmin. Assignment alone does
// not grant deletion, and the same gate guards archiving.
func CanDeleteTask(actorID uint64, members []models.WorkspaceMember, task *models.Task) bool {
	if IsElevated(members, actorID) {
		return true
	}
	return task.UserID == actorID
}

// CanViewTask allows any workspace member to read a task.
func CanViewTask(actorID uint64, members []models.WorkspaceMember) bool {
	_, ok := RoleOf(members, actorID)
	return ok
}
