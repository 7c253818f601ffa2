package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hokaccha/workhub-api/internal/authz"
	"github.com/hokaccha/workhub-api/internal/cache"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationNotPending    = errors.New("invitation has already been answered")
	ErrInvitationNotForYou     = errors.New("invitation is addressed to another user")
	ErrInvitationNotYours      = errors.New("only the sender or a workspace superadmin can cancel an invitation")
	ErrAlreadyMember           = errors.New("user is already a member of this workspace")
	ErrInvitationWorkspaceGone = errors.New("the workspace of this invitation no longer exists")
)

// InvitationService answers and cancels workspace invitations.
type InvitationService struct {
	invRepo  repository.InvitationRepository
	wsRepo   repository.WorkspaceRepository
	userRepo repository.UserRepository
	notifier *NotificationService
	listings *cache.ListingCache
	logger   *zap.Logger
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(
	invRepo repository.InvitationRepository,
	wsRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
	listings *cache.ListingCache,
	logger *zap.Logger,
) *InvitationService {
	return &InvitationService{
		invRepo:  invRepo,
		wsRepo:   wsRepo,
		userRepo: userRepo,
		notifier: notifier,
		listings: listings,
		logger:   logger,
	}
}

// ListForGuest returns the pending invitations addressed to a user.
func (s *InvitationService) ListForGuest(guestID uint64) ([]models.WorkspaceInvitation, error) {
	invitations, err := s.invRepo.ListByGuest(guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Accept joins the guest to the workspace with the invited role and notifies
// the sender.
func (s *InvitationService) Accept(ctx context.Context, invitationID, actorID uint64) (*models.Workspace, error) {
	inv, err := s.pendingFor(invitationID, actorID)
	if err != nil {
		return nil, err
	}

	ws, err := s.wsRepo.FindByID(inv.WorkspaceID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationWorkspaceGone
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if _, ok := authz.RoleOf(ws.Members, actorID); ok {
		return nil, ErrAlreadyMember
	}

	guest, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      guest.ID,
		Role:        inv.Role,
		Username:    guest.Username,
		Email:       guest.Email,
		JoinedAt:    time.Now(),
	}
	if err := s.wsRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.invRepo.UpdateStatusWithMark(inv, models.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	s.notifier.InvitationAnswered(guest, ws, inv, true)
	s.listings.InvalidateWorkspace(ctx, ws.ID)

	return ws, nil
}

// Decline marks the invitation rejected and notifies the sender.
func (s *InvitationService) Decline(invitationID, actorID uint64) error {
	inv, err := s.pendingFor(invitationID, actorID)
	if err != nil {
		return err
	}

	if err := s.invRepo.UpdateStatusWithMark(inv, models.InvitationRejected); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	guest, err := s.userRepo.FindByID(actorID)
	if err != nil {
		return fmt.Errorf("failed to find guest: %w", err)
	}

	ws, err := s.wsRepo.FindByID(inv.WorkspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Workspace gone; the status change is still recorded.
			return nil
		}
		return fmt.Errorf("failed to find workspace: %w", err)
	}

	s.notifier.InvitationAnswered(guest, ws, inv, false)
	return nil
}

// Cancel retires a pending invitation. Allowed for its sender and for
// superadmins of the workspace.
func (s *InvitationService) Cancel(invitationID, actorID uint64) error {
	inv, err := s.invRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("failed to find invitation: %w", err)
	}
	if inv.Status != models.InvitationPending {
		return ErrInvitationNotPending
	}

	if inv.SenderID != actorID {
		ws, err := s.wsRepo.FindByID(inv.WorkspaceID, "Members")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationWorkspaceGone
			}
			return fmt.Errorf("failed to find workspace: %w", err)
		}
		if !authz.IsSuperadmin(ws.Members, actorID) {
			return ErrInvitationNotYours
		}
	}

	if err := s.invRepo.UpdateStatusWithMark(inv, models.InvitationCancelled); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	return nil
}

// pendingFor loads an invitation and checks it is pending and addressed to
// the actor.
func (s *InvitationService) pendingFor(invitationID, actorID uint64) (*models.WorkspaceInvitation, error) {
	inv, err := s.invRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if inv.GuestID != actorID {
		return nil, ErrInvitationNotForYou
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}
