package repository

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// CreateBatch persists one notification row per recipient
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.Create(&notifications).Error
}

// ListByUser lists a user's notifications, newest first
func (r *GormNotificationRepository) ListByUser(userID uint64) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read
func (r *GormNotificationRepository) MarkRead(id, userID uint64) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllViewed stamps ViewedAt on the user's unviewed notifications
func (r *GormNotificationRepository) MarkAllViewed(userID uint64, viewedAt time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND viewed_at IS NULL", userID).
		Update("viewed_at", viewedAt).Error
}

// DeleteByTask deletes all notifications referencing a task
func (r *GormNotificationRepository) DeleteByTask(taskID uint64) error {
	return r.db.Where("task_id = ?", taskID).Delete(&models.Notification{}).Error
}

// DeleteByTaskAndUsers deletes a task's notifications for specific recipients
func (r *GormNotificationRepository) DeleteByTaskAndUsers(taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.Notification{}).Error
}

// DeleteByWorkspace deletes all notifications referencing a workspace
func (r *GormNotificationRepository) DeleteByWorkspace(workspaceID uint64) error {
	return r.db.Where("workspace_id = ?", workspaceID).Delete(&models.Notification{}).Error
}

// DeleteByWorkspaceAndUsers deletes a workspace's notifications for specific recipients
func (r *GormNotificationRepository) DeleteByWorkspaceAndUsers(workspaceID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Where("workspace_id = ? AND user_id IN ?", workspaceID, userIDs).
		Delete(&models.Notification{}).Error
}

// DeleteByUser deletes all notifications addressed to a user
func (r *GormNotificationRepository) DeleteByUser(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error
}
