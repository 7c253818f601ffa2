package repository

import (
	"github.com/hokaccha/workhub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination. Non-archived listings
// exclude archived tasks; archived listings return only them. Ordering uses
// priority as the tie-break within equal deadlines.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.WorkspaceID != nil {
		query = query.Where("tasks.workspace_id = ?", *filter.WorkspaceID)
	}
	if filter.OwnerID != nil {
		query = query.Where("tasks.user_id = ?", *filter.OwnerID)
	}
	if filter.Archived {
		query = query.Where("tasks.status = ?", models.TaskStatusArchived)
	} else {
		query = query.Where("tasks.status <> ?", models.TaskStatusArchived)
		if filter.Status != nil {
			query = query.Where("tasks.status = ?", *filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(`CASE WHEN tasks.deadline IS NULL THEN 1 ELSE 0 END, tasks.deadline ASC,
		CASE tasks.priority WHEN 'Urgent' THEN 0 WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 ELSE 3 END,
		tasks.created_at DESC`)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Owner").Preload("Assignments").Preload("Assignments.User").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByWorkspace returns every task in a workspace with assignments loaded
func (r *GormTaskRepository) ListByWorkspace(workspaceID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Assignments").
		Where("workspace_id = ?", workspaceID).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete hard deletes a task along with its assignments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.Task{}, id).Error
	})
}

// DeleteByWorkspace hard deletes a workspace's remaining tasks and assignments
func (r *GormTaskRepository) DeleteByWorkspace(workspaceID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).
			Where("workspace_id = ?", workspaceID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) == 0 {
			return nil
		}

		if err := tx.Unscoped().Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Where("id IN ?", taskIDs).Delete(&models.Task{}).Error
	})
}

// AssignUsers assigns multiple users to a task
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// UnassignUsers removes user assignments from a task
func (r *GormTaskRepository) UnassignUsers(taskID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// ReassignOwnedTasks moves all tasks a user owns in one workspace to another
func (r *GormTaskRepository) ReassignOwnedTasks(workspaceID, ownerID, targetWorkspaceID uint64) error {
	return r.db.Model(&models.Task{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, ownerID).
		Update("workspace_id", targetWorkspaceID).Error
}

// CountMembersByIDs counts how many of the given user IDs are members of the workspace
func (r *GormTaskRepository) CountMembersByIDs(userIDs []uint64, workspaceID uint64) (int64, error) {
	var count int64

	err := r.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id IN ?", workspaceID, userIDs).
		Count(&count).Error

	return count, err
}
