package repository

import (
	"github.com/hokaccha/workhub-api/internal/models"
	"gorm.io/gorm"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository.
// The invitation row and the workspace's invitation mark are always written
// inside the same transaction; no method touches one without the other.
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// CreateWithMark creates an invitation and its pending mark atomically
func (r *GormInvitationRepository) CreateWithMark(inv *models.WorkspaceInvitation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		mark := models.WorkspaceInviteMark{
			WorkspaceID:  inv.WorkspaceID,
			InvitationID: inv.ID,
			GuestID:      inv.GuestID,
			Status:       inv.Status,
		}
		return tx.Create(&mark).Error
	})
}

// UpdateStatusWithMark transitions an invitation and syncs its mark atomically.
// Acceptance removes the mark: accepted guests appear in the roster instead.
func (r *GormInvitationRepository) UpdateStatusWithMark(inv *models.WorkspaceInvitation, status models.InvitationStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		inv.Status = status
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		if status == models.InvitationAccepted {
			return tx.Where("workspace_id = ? AND invitation_id = ?", inv.WorkspaceID, inv.ID).
				Delete(&models.WorkspaceInviteMark{}).Error
		}

		return tx.Model(&models.WorkspaceInviteMark{}).
			Where("workspace_id = ? AND invitation_id = ?", inv.WorkspaceID, inv.ID).
			Update("status", status).Error
	})
}

// FindByID finds an invitation by ID with optional preloading
func (r *GormInvitationRepository) FindByID(id uint64, preload ...string) (*models.WorkspaceInvitation, error) {
	var inv models.WorkspaceInvitation
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByGuestAndWorkspace finds the most recent invitation for a guest in a workspace
func (r *GormInvitationRepository) FindByGuestAndWorkspace(guestID, workspaceID uint64) (*models.WorkspaceInvitation, error) {
	var inv models.WorkspaceInvitation
	if err := r.db.Where("guest_id = ? AND workspace_id = ?", guestID, workspaceID).
		Order("created_at DESC").
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListByGuest lists invitations addressed to a guest
func (r *GormInvitationRepository) ListByGuest(guestID uint64) ([]models.WorkspaceInvitation, error) {
	var invitations []models.WorkspaceInvitation
	if err := r.db.Preload("Sender").Preload("Workspace").
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// DeletePendingByWorkspaceAndGuests removes pending invitations and their marks
func (r *GormInvitationRepository) DeletePendingByWorkspaceAndGuests(workspaceID uint64, guestIDs []uint64) error {
	if len(guestIDs) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND guest_id IN ? AND status = ?",
			workspaceID, guestIDs, models.InvitationPending).
			Delete(&models.WorkspaceInvitation{}).Error; err != nil {
			return err
		}

		return tx.Where("workspace_id = ? AND guest_id IN ? AND status = ?",
			workspaceID, guestIDs, models.InvitationPending).
			Delete(&models.WorkspaceInviteMark{}).Error
	})
}

// DeleteByWorkspace removes all invitations and marks of a workspace
func (r *GormInvitationRepository) DeleteByWorkspace(workspaceID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).
			Delete(&models.WorkspaceInvitation{}).Error; err != nil {
			return err
		}

		return tx.Where("workspace_id = ?", workspaceID).
			Delete(&models.WorkspaceInviteMark{}).Error
	})
}
