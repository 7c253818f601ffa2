package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hokaccha/workhub-api/internal/authz"
	"github.com/hokaccha/workhub-api/internal/cache"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"github.com/hokaccha/workhub-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceForbidden  = errors.New("only a workspace superadmin can perform this action")
	ErrWorkspaceTitleEmpty = errors.New("workspace title cannot be empty")
	ErrNotAMember          = errors.New("user is not a member of this workspace")
	ErrInvalidMemberRole   = errors.New("invalid workspace role")
)

// WorkspaceService applies roster and workspace mutations and cascades their
// consequences into tasks, invitations and notifications.
type WorkspaceService struct {
	wsRepo    repository.WorkspaceRepository
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	invRepo   repository.InvitationRepository
	notifRepo repository.NotificationRepository
	notifier  *NotificationService
	listings  *cache.ListingCache
	logger    *zap.Logger
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(
	wsRepo repository.WorkspaceRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	invRepo repository.InvitationRepository,
	notifRepo repository.NotificationRepository,
	notifier *NotificationService,
	listings *cache.ListingCache,
	logger *zap.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		wsRepo:    wsRepo,
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		invRepo:   invRepo,
		notifRepo: notifRepo,
		notifier:  notifier,
		listings:  listings,
		logger:    logger,
	}
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	Title       string
	Description string
	CreatorID   uint64
}

// CreateWorkspace creates a workspace with its creator as superadmin.
func (s *WorkspaceService) CreateWorkspace(input CreateWorkspaceInput) (*models.Workspace, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrWorkspaceTitleEmpty
	}

	creator, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	ws := &models.Workspace{
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   creator.ID,
	}
	if err := s.wsRepo.Create(ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      creator.ID,
		Role:        models.WorkspaceRoleSuperadmin,
		Username:    creator.Username,
		Email:       creator.Email,
		JoinedAt:    time.Now(),
	}
	if err := s.wsRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add creator to workspace: %w", err)
	}

	return ws, nil
}

// ListForUser returns the memberships of a user with workspaces preloaded.
func (s *WorkspaceService) ListForUser(userID uint64) ([]models.WorkspaceMember, error) {
	memberships, err := s.wsRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return memberships, nil
}

// GetWorkspace returns a workspace with roster and invitation markers if the
// actor is a member.
func (s *WorkspaceService) GetWorkspace(workspaceID, actorID uint64) (*models.Workspace, error) {
	ws, err := s.wsRepo.FindByID(workspaceID, "Members", "InvitationMarks")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if _, ok := authz.RoleOf(ws.Members, actorID); !ok {
		// Hide existence from non-members
		return nil, ErrWorkspaceNotFound
	}

	return ws, nil
}

// MemberInput is one proposed roster entry.
type MemberInput struct {
	UserID uint64
	Role   models.WorkspaceRole
}

// UpdateWorkspaceInput carries the superadmin edit form. A nil Members
// leaves the roster untouched.
type UpdateWorkspaceInput struct {
	Title       *string
	Description *string
	Members     *[]MemberInput
}

// UpdateWorkspace applies a superadmin edit: title/description changes fan
// out to the roster, added members receive invitations, and removed members
// are cascaded out of tasks, invitations and notifications.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, workspaceID, actorID uint64, input UpdateWorkspaceInput) (*models.Workspace, error) {
	ws, err := s.wsRepo.FindByID(workspaceID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if !authz.IsSuperadmin(ws.Members, actorID) {
		return nil, ErrWorkspaceForbidden
	}

	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find actor: %w", err)
	}

	detailsChanged := false
	if input.Title != nil && *input.Title != ws.Title {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrWorkspaceTitleEmpty
		}
		ws.Title = *input.Title
		detailsChanged = true
	}
	if input.Description != nil && *input.Description != ws.Description {
		ws.Description = *input.Description
		detailsChanged = true
	}

	if detailsChanged {
		if err := s.wsRepo.Update(ws); err != nil {
			return nil, fmt.Errorf("failed to update workspace: %w", err)
		}
		s.notifier.WorkspaceUpdated(actor, ws, ws.Members)
	}

	if input.Members != nil {
		if err := s.applyRosterDiff(ctx, ws, actor, *input.Members); err != nil {
			return nil, err
		}
	}

	return s.wsRepo.FindByID(ws.ID, "Members", "InvitationMarks")
}

// applyRosterDiff computes added, removed and re-ranked members against the
// current roster. Added ids become invitations, removed ids are cascaded
// out, and existing members whose proposed role differs are updated in
// place.
func (s *WorkspaceService) applyRosterDiff(ctx context.Context, ws *models.Workspace, actor *models.User, proposed []MemberInput) error {
	currentIDs := ws.MemberIDs()

	proposedIDs := make([]uint64, 0, len(proposed))
	roleFor := make(map[uint64]models.WorkspaceRole, len(proposed))
	for _, m := range proposed {
		if m.Role == "" {
			m.Role = models.WorkspaceRoleMember
		}
		switch m.Role {
		case models.WorkspaceRoleMember, models.WorkspaceRoleAdmin, models.WorkspaceRoleSuperadmin:
		default:
			return ErrInvalidMemberRole
		}
		proposedIDs = append(proposedIDs, m.UserID)
		roleFor[m.UserID] = m.Role
	}
	proposedIDs = utils.UniqueUint64(proposedIDs)

	newIDs := utils.DiffUint64(proposedIDs, currentIDs)
	removedIDs := utils.DiffUint64(currentIDs, proposedIDs)

	rolesChanged := false
	for _, m := range ws.Members {
		role, ok := roleFor[m.UserID]
		if !ok || role == m.Role {
			continue
		}
		if err := s.wsRepo.UpdateMemberRole(ws.ID, m.UserID, role); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}
		rolesChanged = true
	}
	if rolesChanged {
		s.listings.InvalidateWorkspace(ctx, ws.ID)
	}

	for _, guestID := range newIDs {
		if err := s.inviteGuest(ws, actor, guestID, roleFor[guestID]); err != nil {
			return err
		}
	}

	if len(removedIDs) > 0 {
		if err := s.removeMembers(ctx, ws, actor, removedIDs); err != nil {
			return err
		}
	}

	return nil
}

// inviteGuest creates or reuses an invitation for a guest. A pending
// invitation is reused untouched; a declined one is retired to CANCELLED and
// replaced; a cancelled one is flipped to REJECTED without a new row.
func (s *WorkspaceService) inviteGuest(ws *models.Workspace, actor *models.User, guestID uint64, role models.WorkspaceRole) error {
	if _, err := s.userRepo.FindByID(guestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find invited user: %w", err)
	}

	existing, err := s.invRepo.FindByGuestAndWorkspace(guestID, ws.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up existing invitation: %w", err)
	}

	if existing != nil {
		switch existing.Status {
		case models.InvitationPending:
			return nil
		case models.InvitationCancelled:
			if err := s.invRepo.UpdateStatusWithMark(existing, models.InvitationRejected); err != nil {
				return fmt.Errorf("failed to update cancelled invitation: %w", err)
			}
			return nil
		case models.InvitationRejected:
			if err := s.invRepo.UpdateStatusWithMark(existing, models.InvitationCancelled); err != nil {
				return fmt.Errorf("failed to retire declined invitation: %w", err)
			}
		}
	}

	inv := &models.WorkspaceInvitation{
		SenderID:    actor.ID,
		GuestID:     guestID,
		WorkspaceID: ws.ID,
		Role:        role,
		Status:      models.InvitationPending,
	}
	if err := s.invRepo.CreateWithMark(inv); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	s.notifier.InvitationSent(actor, ws, inv)
	return nil
}

// removeMembers cascades a roster removal: pending invitations and workspace
// notifications of the removed users are purged, each removee is notified,
// remaining members get one aggregate notification, and every task in the
// workspace is stripped of the removed assignees.
func (s *WorkspaceService) removeMembers(ctx context.Context, ws *models.Workspace, actor *models.User, removedIDs []uint64) error {
	var removedNames []string
	for _, m := range ws.Members {
		if utils.ContainsUint64(removedIDs, m.UserID) {
			removedNames = append(removedNames, m.Username)
		}
	}

	if err := s.invRepo.DeletePendingByWorkspaceAndGuests(ws.ID, removedIDs); err != nil {
		return fmt.Errorf("failed to delete pending invitations: %w", err)
	}
	if err := s.notifRepo.DeleteByWorkspaceAndUsers(ws.ID, removedIDs); err != nil {
		return fmt.Errorf("failed to delete workspace notifications: %w", err)
	}

	for _, userID := range removedIDs {
		if err := s.wsRepo.RemoveMember(ws.ID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
	}

	remaining, err := s.wsRepo.ListMembers(ws.ID)
	if err != nil {
		return fmt.Errorf("failed to reload workspace members: %w", err)
	}

	for _, userID := range removedIDs {
		s.notifier.MemberRemoved(actor, ws, userID)
	}
	s.notifier.MembersRemoved(actor, ws, removedNames, remaining)

	if err := s.stripAssignments(ws.ID, removedIDs, actor.ID, remaining); err != nil {
		return err
	}

	s.listings.InvalidateWorkspace(ctx, ws.ID)
	return nil
}

// stripAssignments removes the given users from every task's assignment set
// in the workspace. A set that would become empty is refilled by the
// fallback order: acting member, then task owner, then any superadmin.
func (s *WorkspaceService) stripAssignments(workspaceID uint64, removedIDs []uint64, actorID uint64, members []models.WorkspaceMember) error {
	tasks, err := s.taskRepo.ListByWorkspace(workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list workspace tasks: %w", err)
	}

	for i := range tasks {
		task := &tasks[i]
		current := task.AssignedIDs()

		var stripped []uint64
		for _, id := range current {
			if utils.ContainsUint64(removedIDs, id) {
				stripped = append(stripped, id)
			}
		}
		if len(stripped) == 0 {
			continue
		}

		if err := s.taskRepo.UnassignUsers(task.ID, stripped); err != nil {
			return fmt.Errorf("failed to strip assignees from task: %w", err)
		}

		if len(stripped) == len(current) {
			if fallback := reassignmentFallback(task, actorID, members); fallback != 0 {
				if err := s.taskRepo.AssignUsers(task.ID, []uint64{fallback}); err != nil {
					return fmt.Errorf("failed to reassign task: %w", err)
				}
			}
		}
	}

	return nil
}

// reassignmentFallback picks the replacement assignee for an emptied set:
// the acting member if still in the roster, else the task owner if still in
// the roster, else any superadmin. Zero means no candidate exists.
func reassignmentFallback(task *models.Task, actorID uint64, members []models.WorkspaceMember) uint64 {
	if _, ok := authz.RoleOf(members, actorID); ok {
		return actorID
	}
	if _, ok := authz.RoleOf(members, task.UserID); ok {
		return task.UserID
	}
	for _, m := range members {
		if m.Role == models.WorkspaceRoleSuperadmin {
			return m.UserID
		}
	}
	return 0
}

// DeleteWorkspace requires superadmin. It purges the workspace's
// notifications and invitations, re-homes the actor's owned tasks to their
// default workspace, deletes the remaining tasks, and notifies the former
// members. Deleting a default workspace synthesizes a fresh default for its
// creator first, whether or not the creator is the actor, and the creator's
// tasks follow it.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, workspaceID, actorID uint64) error {
	ws, err := s.wsRepo.FindByID(workspaceID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("failed to find workspace: %w", err)
	}

	if !authz.IsSuperadmin(ws.Members, actorID) {
		return ErrWorkspaceForbidden
	}

	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return fmt.Errorf("failed to find actor: %w", err)
	}

	if err := s.notifRepo.DeleteByWorkspace(ws.ID); err != nil {
		return fmt.Errorf("failed to delete workspace notifications: %w", err)
	}
	if err := s.invRepo.DeleteByWorkspace(ws.ID); err != nil {
		return fmt.Errorf("failed to delete workspace invitations: %w", err)
	}

	target, err := s.defaultWorkspaceFor(actor, ws.ID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.ReassignOwnedTasks(ws.ID, actor.ID, target.ID); err != nil {
		return fmt.Errorf("failed to re-home owned tasks: %w", err)
	}

	// When the deleted workspace was another user's default, that user must
	// end up with a default of their own, holding their re-homed tasks.
	var replacement *models.Workspace
	if ws.IsDefault && ws.CreatorID != actor.ID {
		creator, err := s.userRepo.FindByID(ws.CreatorID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find workspace creator: %w", err)
			}
		} else {
			replacement, err = s.defaultWorkspaceFor(creator, ws.ID)
			if err != nil {
				return err
			}
			if err := s.taskRepo.ReassignOwnedTasks(ws.ID, creator.ID, replacement.ID); err != nil {
				return fmt.Errorf("failed to re-home creator tasks: %w", err)
			}
		}
	}

	if err := s.taskRepo.DeleteByWorkspace(ws.ID); err != nil {
		return fmt.Errorf("failed to delete workspace tasks: %w", err)
	}

	if err := s.wsRepo.Delete(ws.ID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	s.notifier.WorkspaceDeleted(actor, ws, ws.Members)

	s.listings.InvalidateWorkspace(ctx, ws.ID)
	s.listings.InvalidateWorkspace(ctx, target.ID)
	s.listings.InvalidateUserArchive(ctx, actor.ID)
	if replacement != nil {
		s.listings.InvalidateWorkspace(ctx, replacement.ID)
		s.listings.InvalidateUserArchive(ctx, ws.CreatorID)
	}

	return nil
}

// defaultWorkspaceFor returns the user's default workspace as a re-homing
// target, never the workspace being deleted. When the default on record is
// the one being deleted, or none exists, a fresh default is synthesized so
// the one-default invariant holds throughout.
func (s *WorkspaceService) defaultWorkspaceFor(user *models.User, deletingID uint64) (*models.Workspace, error) {
	target, err := s.wsRepo.FindDefaultForUser(user.ID)
	if err == nil && target.ID != deletingID {
		return target, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find default workspace: %w", err)
	}

	fresh := &models.Workspace{
		Title:       fmt.Sprintf("Espace de %s", user.Username),
		Description: "Espace de travail par défaut",
		CreatorID:   user.ID,
		IsDefault:   true,
	}
	if err := s.wsRepo.Create(fresh); err != nil {
		return nil, fmt.Errorf("failed to create default workspace: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: fresh.ID,
		UserID:      user.ID,
		Role:        models.WorkspaceRoleSuperadmin,
		Username:    user.Username,
		Email:       user.Email,
		JoinedAt:    time.Now(),
	}
	if err := s.wsRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to default workspace: %w", err)
	}

	return fresh, nil
}

// ExitWorkspace is the self-removal flow: the leaver's workspace
// notifications are purged, their assignments are stripped with the task
// owner preferred as replacement, and the remaining members are notified.
func (s *WorkspaceService) ExitWorkspace(ctx context.Context, workspaceID, actorID uint64) error {
	ws, err := s.wsRepo.FindByID(workspaceID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("failed to find workspace: %w", err)
	}

	if _, ok := authz.RoleOf(ws.Members, actorID); !ok {
		return ErrNotAMember
	}

	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return fmt.Errorf("failed to find leaving user: %w", err)
	}

	if err := s.notifRepo.DeleteByWorkspaceAndUsers(ws.ID, []uint64{actorID}); err != nil {
		return fmt.Errorf("failed to delete workspace notifications: %w", err)
	}
	if err := s.wsRepo.RemoveMember(ws.ID, actorID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	remaining, err := s.wsRepo.ListMembers(ws.ID)
	if err != nil {
		return fmt.Errorf("failed to reload workspace members: %w", err)
	}

	var leaverName string
	for _, m := range ws.Members {
		if m.UserID == actorID {
			leaverName = m.Username
			break
		}
	}
	s.notifier.MembersRemoved(actor, ws, []string{leaverName}, remaining)

	// The leaver is no longer a member, so the fallback reduces to the
	// task owner, then any superadmin.
	if err := s.stripAssignments(ws.ID, []uint64{actorID}, actorID, remaining); err != nil {
		return err
	}

	s.listings.InvalidateWorkspace(ctx, ws.ID)
	return nil
}
