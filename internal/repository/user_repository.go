package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateWorkspace is returned when creating the default workspace fails inside the signup transaction.
	ErrCreateWorkspace = errors.New("user repository: create workspace failed")
	// ErrCreateWorkspaceMember is returned when creating the membership fails inside the signup transaction.
	ErrCreateWorkspaceMember = errors.New("user repository: create workspace member failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithDefaultWorkspace creates a user, their default workspace, and the
// superadmin membership atomically. Every real user has exactly one default
// workspace from the moment the account exists.
func (r *GormUserRepository) CreateWithDefaultWorkspace(user *models.User, ws *models.Workspace, member *models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		ws.CreatorID = user.ID
		ws.IsDefault = true
		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspace, err)
		}

		member.WorkspaceID = ws.ID
		member.UserID = user.ID
		member.Username = user.Username
		member.Email = user.Email

		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspaceMember, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetContact upserts a contact edge. The blocked flag flips a user between
// the contact and blocked sets, so an id can never be in both.
func (r *GormUserRepository) SetContact(userID, contactID uint64, blocked bool) error {
	contact := models.UserContact{
		UserID:    userID,
		ContactID: contactID,
		Blocked:   blocked,
	}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "contact_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"blocked"}),
		}).
		Create(&contact).Error
}

// RemoveContact removes a contact edge regardless of its blocked flag
func (r *GormUserRepository) RemoveContact(userID, contactID uint64) error {
	return r.db.Where("user_id = ? AND contact_id = ?", userID, contactID).
		Delete(&models.UserContact{}).Error
}

// ListContacts lists a user's contact edges with the contact preloaded
func (r *GormUserRepository) ListContacts(userID uint64) ([]models.UserContact, error) {
	var contacts []models.UserContact
	if err := r.db.Preload("Contact").
		Where("user_id = ?", userID).
		Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListExpiredVisitors returns visitor accounts past their expiry
func (r *GormUserRepository) ListExpiredVisitors(now time.Time) ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("role = ? AND expires_at IS NOT NULL AND expires_at < ?",
		models.GlobalRoleVisitor, now).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete hard deletes a user
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Unscoped().Delete(&models.User{}, id).Error
}
