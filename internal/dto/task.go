package dto

import (
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	EstimatedTime string              `json:"estimated_time,omitempty"`
	Date          *time.Time          `json:"date"`
	Deadline      *time.Time          `json:"deadline"`
	ArchiveDate   *time.Time          `json:"archive_date,omitempty"`
	OwnerID       uint64              `json:"owner_id"`
	WorkspaceID   uint64              `json:"workspace_id"`
	AssignedTo    []UserDTO           `json:"assigned_to"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Owner         *UserDTO            `json:"owner,omitempty"`
}

// TaskListItemDTO represents a task in list responses. It is also the shape
// cached in Redis, so it must round-trip through JSON unchanged.
type TaskListItemDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Deadline    *time.Time          `json:"deadline"`
	ArchiveDate *time.Time          `json:"archive_date,omitempty"`
	OwnerID     uint64              `json:"owner_id"`
	WorkspaceID uint64              `json:"workspace_id"`
	AssignedTo  []uint64            `json:"assigned_to"`
	CreatedAt   time.Time           `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO `json:"tasks"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		Priority:      task.Priority,
		EstimatedTime: task.EstimatedTime,
		Date:          task.Date,
		Deadline:      task.Deadline,
		ArchiveDate:   task.ArchiveDate,
		OwnerID:       task.UserID,
		WorkspaceID:   task.WorkspaceID,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	dto.AssignedTo = make([]UserDTO, 0, len(task.Assignments))
	for _, assignment := range task.Assignments {
		dto.AssignedTo = append(dto.AssignedTo, ToUserDTO(assignment.User))
	}

	// Include owner if preloaded
	if task.Owner.ID != 0 {
		owner := ToUserDTO(task.Owner)
		dto.Owner = &owner
	}

	return dto
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	return TaskListItemDTO{
		ID:          task.ID,
		Title:       task.Title,
		Status:      task.Status,
		Priority:    task.Priority,
		Deadline:    task.Deadline,
		ArchiveDate: task.ArchiveDate,
		OwnerID:     task.UserID,
		WorkspaceID: task.WorkspaceID,
		AssignedTo:  task.AssignedIDs(),
		CreatedAt:   task.CreatedAt,
	}
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
