package repository

import (
	"github.com/hokaccha/workhub-api/internal/models"
	"gorm.io/gorm"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// Create creates a new workspace
func (r *GormWorkspaceRepository) Create(ws *models.Workspace) error {
	return r.db.Create(ws).Error
}

// FindByID finds a workspace by ID with optional preloading
func (r *GormWorkspaceRepository) FindByID(id uint64, preload ...string) (*models.Workspace, error) {
	var ws models.Workspace
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// FindDefaultForUser finds the user's default workspace
func (r *GormWorkspaceRepository) FindDefaultForUser(userID uint64) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.Where("creator_id = ? AND is_default = ?", userID, true).
		First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// Update updates a workspace
func (r *GormWorkspaceRepository) Update(ws *models.Workspace) error {
	return r.db.Save(ws).Error
}

// Delete deletes a workspace, its roster and its invitation marks in a transaction
func (r *GormWorkspaceRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", id).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}

		if err := tx.Where("workspace_id = ?", id).Delete(&models.WorkspaceInviteMark{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Workspace{}, id).Error
	})
}

// AddMember adds a member to a workspace
func (r *GormWorkspaceRepository) AddMember(member *models.WorkspaceMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from a workspace
func (r *GormWorkspaceRepository) RemoveMember(workspaceID, userID uint64) error {
	return r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

// UpdateMemberRole changes an existing member's workspace role
func (r *GormWorkspaceRepository) UpdateMemberRole(workspaceID, userID uint64, role models.WorkspaceRole) error {
	return r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("role", role).Error
}

// FindMember finds a specific workspace member
func (r *GormWorkspaceRepository) FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a workspace
func (r *GormWorkspaceRepository) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.Where("workspace_id = ?", workspaceID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembersByUserID lists all workspaces a user is a member of
func (r *GormWorkspaceRepository) ListMembersByUserID(userID uint64) ([]models.WorkspaceMember, error) {
	var memberships []models.WorkspaceMember
	if err := r.db.Preload("Workspace").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
