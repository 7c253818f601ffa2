package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hokaccha/workhub-api/internal/authz"
	"github.com/hokaccha/workhub-api/internal/cache"
	"github.com/hokaccha/workhub-api/internal/dto"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"github.com/hokaccha/workhub-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrNotWorkspaceMember = errors.New("user is not a member of the workspace")
	ErrTaskForbidden      = errors.New("user does not have permission to modify this task")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleEmpty         = errors.New("title cannot be empty")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidAssignee    = errors.New("one or more users are not members of the workspace")
	ErrUserNotFoundInTask = errors.New("referenced user not found")
)

// TaskService applies task-lifecycle mutations. Every mutation re-derives
// permissions from the workspace roster, then propagates notifications and
// cache invalidation after the write.
type TaskService struct {
	taskRepo  repository.TaskRepository
	wsRepo    repository.WorkspaceRepository
	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository
	notifier  *NotificationService
	listings  *cache.ListingCache
	logger    *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	wsRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	notifRepo repository.NotificationRepository,
	notifier *NotificationService,
	listings *cache.ListingCache,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		wsRepo:    wsRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		notifier:  notifier,
		listings:  listings,
		logger:    logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title         string
	Description   string
	Status        models.TaskStatus
	Priority      models.TaskPriority
	EstimatedTime string
	Date          *time.Time
	Deadline      *time.Time
	WorkspaceID   uint64
	AssignedTo    []uint64
	CreatorID     uint64
}

// UpdateTaskInput carries per-field update commands. A nil field is absent
// from the request and is neither authorized nor applied.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	EstimatedTime *string
	Date          *time.Time
	Deadline      *time.Time
	ClearDeadline bool
	OwnerID       *uint64
	WorkspaceID   *uint64
	AssignedTo    *[]uint64
}

var validStatuses = map[models.TaskStatus]bool{
	models.TaskStatusPending:    true,
	models.TaskStatusInProgress: true,
	models.TaskStatusCompleted:  true,
	models.TaskStatusArchived:   true,
}

var validPriorities = map[models.TaskPriority]bool{
	models.TaskPriorityLow:    true,
	models.TaskPriorityMedium: true,
	models.TaskPriorityHigh:   true,
	models.TaskPriorityUrgent: true,
}

// ListTasks returns one page of a workspace's active tasks, read through the
// listing cache. Membership is checked before the cache so a stale entry can
// never leak tasks to a non-member.
func (s *TaskService) ListTasks(ctx context.Context, actorID, workspaceID uint64, page, pageSize int) (*dto.TaskListResponse, error) {
	if _, err := s.wsRepo.FindMember(workspaceID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotWorkspaceMember
		}
		return nil, fmt.Errorf("failed to verify workspace membership: %w", err)
	}

	key := cache.TaskListKey(workspaceID, page, pageSize)
	var cached dto.TaskListResponse
	if s.listings.Get(ctx, key, &cached) {
		return &cached, nil
	}

	filter := repository.TaskFilter{
		WorkspaceID: &workspaceID,
		Page:        page,
		PageSize:    pageSize,
	}
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	response := dto.ToTaskListResponse(tasks, page, pageSize, total)
	s.listings.Put(ctx, key, response)
	return &response, nil
}

// ListArchived returns one page of the user's archived tasks, read through
// the user-scoped archive cache.
func (s *TaskService) ListArchived(ctx context.Context, userID uint64, page, pageSize int) (*dto.TaskListResponse, error) {
	key := cache.ArchivedKey(userID, page, pageSize)
	var cached dto.TaskListResponse
	if s.listings.Get(ctx, key, &cached) {
		return &cached, nil
	}

	filter := repository.TaskFilter{
		OwnerID:  &userID,
		Archived: true,
		Page:     page,
		PageSize: pageSize,
	}
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived tasks: %w", err)
	}

	response := dto.ToTaskListResponse(tasks, page, pageSize, total)
	s.listings.Put(ctx, key, response)
	return &response, nil
}

// GetTask returns a task if the actor belongs to its workspace.
func (s *TaskService) GetTask(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Owner", "Workspace", "Assignments", "Assignments.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	members, err := s.wsRepo.ListMembers(task.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace members: %w", err)
	}
	if !authz.CanViewTask(actorID, members) {
		// Hide existence from non-members
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// CreateTask creates a task, assigns its initial set, notifies assignees and
// elevated members, and invalidates the workspace's listing cache.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !validStatuses[input.Status] || input.Status == models.TaskStatusArchived {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityLow
	}
	if !validPriorities[input.Priority] {
		return nil, ErrInvalidPriority
	}

	ws, err := s.wsRepo.FindByID(input.WorkspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	members, err := s.wsRepo.ListMembers(ws.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace members: %w", err)
	}
	if _, ok := authz.RoleOf(members, input.CreatorID); !ok {
		return nil, ErrNotWorkspaceMember
	}

	assignees := utils.UniqueUint64(input.AssignedTo)
	if len(assignees) == 0 {
		assignees = []uint64{input.CreatorID}
	}
	if err := s.ensureMembers(assignees, ws.ID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:         input.Title,
		Description:   input.Description,
		Status:        input.Status,
		Priority:      input.Priority,
		EstimatedTime: input.EstimatedTime,
		Date:          input.Date,
		Deadline:      input.Deadline,
		WorkspaceID:   ws.ID,
		UserID:        input.CreatorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := s.taskRepo.AssignUsers(task.ID, assignees); err != nil {
		return nil, fmt.Errorf("failed to assign users to task: %w", err)
	}

	actor, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		s.logger.Warn("task created but creator lookup failed, skipping fanout",
			zap.Uint64("task_id", task.ID), zap.Error(err))
	} else {
		s.notifier.TaskCreated(actor, task, ws, assignees, members)
	}

	s.listings.InvalidateWorkspace(ctx, ws.ID)

	return s.taskRepo.FindByID(task.ID, "Owner", "Workspace", "Assignments", "Assignments.User")
}

// UpdateTask authorizes every present field against the workspace roster and
// applies them all, or none: the first disallowed field fails the whole
// request before anything is persisted.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	members, err := s.wsRepo.ListMembers(task.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace members: %w", err)
	}

	if err := s.validateUpdate(task, input); err != nil {
		return nil, err
	}
	if err := s.authorizeUpdate(actorID, task, members, input); err != nil {
		return nil, err
	}

	prevWorkspaceID := task.WorkspaceID
	prevOwnerID := task.UserID
	wasArchived := task.Status == models.TaskStatusArchived
	s.applyFields(task, input)

	var added, removed []uint64
	if input.AssignedTo != nil {
		current := task.AssignedIDs()
		proposed := utils.UniqueUint64(*input.AssignedTo)

		if len(proposed) > 0 {
			if err := s.ensureMembers(proposed, task.WorkspaceID); err != nil {
				return nil, err
			}
		}

		// The assignment set must stay non-empty: fall back to the actor,
		// then to any workspace superadmin.
		if len(proposed) == 0 {
			if _, ok := authz.RoleOf(members, actorID); ok {
				proposed = []uint64{actorID}
			} else if sa := firstSuperadmin(members); sa != 0 {
				proposed = []uint64{sa}
			}
		}

		removed = utils.DiffUint64(current, proposed)
		added = utils.DiffUint64(proposed, current)
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := s.taskRepo.UnassignUsers(task.ID, removed); err != nil {
		return nil, fmt.Errorf("failed to unassign users: %w", err)
	}
	if err := s.taskRepo.AssignUsers(task.ID, added); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	s.fanoutUnassignments(actorID, task, members, removed)

	s.listings.InvalidateWorkspace(ctx, task.WorkspaceID)
	if task.WorkspaceID != prevWorkspaceID {
		s.listings.InvalidateWorkspace(ctx, prevWorkspaceID)
	}
	// Any mutation touching an archived task, including an ownership
	// transfer, changes what the owners' archive pages should show.
	if wasArchived || task.Status == models.TaskStatusArchived {
		s.listings.InvalidateUserArchive(ctx, task.UserID)
		if task.UserID != prevOwnerID {
			s.listings.InvalidateUserArchive(ctx, prevOwnerID)
		}
	}

	return s.taskRepo.FindByID(task.ID, "Owner", "Workspace", "Assignments", "Assignments.User")
}

// DeleteTask cascades a task deletion: purge its notifications, hard-delete
// the task with its assignments, notify assignees and elevated members, and
// drop the affected cache scopes. Assignment alone does not grant deletion.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID, "Assignments", "Workspace")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	members, err := s.wsRepo.ListMembers(task.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to load workspace members: %w", err)
	}
	if !authz.CanDeleteTask(actorID, members, task) {
		return ErrTaskForbidden
	}

	assignedIDs := task.AssignedIDs()

	if err := s.notifRepo.DeleteByTask(task.ID); err != nil {
		return fmt.Errorf("failed to delete task notifications: %w", err)
	}
	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		s.logger.Warn("task deleted but actor lookup failed, skipping fanout",
			zap.Uint64("task_id", task.ID), zap.Error(err))
	} else {
		s.notifier.TaskDeleted(actor, task, &task.Workspace, assignedIDs, members)
	}

	s.listings.InvalidateWorkspace(ctx, task.WorkspaceID)
	if task.Status == models.TaskStatusArchived {
		s.listings.InvalidateUserArchive(ctx, task.UserID)
	}

	return nil
}

// validateUpdate rejects malformed field values before authorization.
func (s *TaskService) validateUpdate(task *models.Task, input UpdateTaskInput) error {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return ErrTitleEmpty
	}
	if input.Status != nil && !validStatuses[*input.Status] {
		return ErrInvalidStatus
	}
	if input.Priority != nil && !validPriorities[*input.Priority] {
		return ErrInvalidPriority
	}
	if input.OwnerID != nil {
		if _, err := s.userRepo.FindByID(*input.OwnerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFoundInTask
			}
			return fmt.Errorf("failed to verify new owner: %w", err)
		}
	}
	if input.WorkspaceID != nil && *input.WorkspaceID != task.WorkspaceID {
		if _, err := s.wsRepo.FindByID(*input.WorkspaceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkspaceNotFound
			}
			return fmt.Errorf("failed to verify target workspace: %w", err)
		}
	}
	return nil
}

// fieldCheck pairs an authorized field with whether the request leaves its
// value unchanged.
type fieldCheck struct {
	field     authz.Field
	unchanged bool
}

// checks builds the per-field authorization list for the present fields.
func (s *TaskService) checks(task *models.Task, input UpdateTaskInput) []fieldCheck {
	var list []fieldCheck

	if input.Title != nil {
		list = append(list, fieldCheck{authz.FieldTitle, *input.Title == task.Title})
	}
	if input.Description != nil {
		list = append(list, fieldCheck{authz.FieldDescription, *input.Description == task.Description})
	}
	if input.Status != nil {
		field := authz.FieldStatus
		if *input.Status == models.TaskStatusArchived {
			field = authz.FieldArchive
		}
		list = append(list, fieldCheck{field, *input.Status == task.Status})
	}
	if input.Priority != nil {
		list = append(list, fieldCheck{authz.FieldPriority, *input.Priority == task.Priority})
	}
	if input.EstimatedTime != nil {
		list = append(list, fieldCheck{authz.FieldEstimatedTime, *input.EstimatedTime == task.EstimatedTime})
	}
	if input.Date != nil {
		list = append(list, fieldCheck{authz.FieldDate, equalTimePtr(input.Date, task.Date)})
	}
	if input.Deadline != nil || input.ClearDeadline {
		unchanged := false
		if input.ClearDeadline {
			unchanged = task.Deadline == nil
		} else {
			unchanged = equalTimePtr(input.Deadline, task.Deadline)
		}
		list = append(list, fieldCheck{authz.FieldDeadline, unchanged})
	}
	if input.OwnerID != nil {
		list = append(list, fieldCheck{authz.FieldOwner, *input.OwnerID == task.UserID})
	}
	if input.WorkspaceID != nil {
		list = append(list, fieldCheck{authz.FieldWorkspace, *input.WorkspaceID == task.WorkspaceID})
	}
	if input.AssignedTo != nil {
		current := task.AssignedIDs()
		proposed := utils.UniqueUint64(*input.AssignedTo)
		unchanged := len(utils.DiffUint64(current, proposed)) == 0 && len(utils.DiffUint64(proposed, current)) == 0
		list = append(list, fieldCheck{authz.FieldAssignees, unchanged})
	}

	return list
}

// authorizeUpdate runs the evaluator over every present field and fails the
// whole request on the first denial. A status change to Archived takes the
// deletion gate on top of the field check.
func (s *TaskService) authorizeUpdate(actorID uint64, task *models.Task, members []models.WorkspaceMember, input UpdateTaskInput) error {
	for _, check := range s.checks(task, input) {
		if !authz.CanMutateField(actorID, members, task, check.field, check.unchanged) {
			return ErrTaskForbidden
		}
		if check.field == authz.FieldArchive && !check.unchanged {
			if !authz.CanDeleteTask(actorID, members, task) {
				return ErrTaskForbidden
			}
		}
	}
	return nil
}

// applyFields writes the present fields onto the task and keeps the derived
// archive timestamp in sync with the status.
func (s *TaskService) applyFields(task *models.Task, input UpdateTaskInput) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil && *input.Status != task.Status {
		if *input.Status == models.TaskStatusArchived {
			now := time.Now()
			task.ArchiveDate = &now
		} else if task.Status == models.TaskStatusArchived {
			task.ArchiveDate = nil
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.EstimatedTime != nil {
		task.EstimatedTime = *input.EstimatedTime
	}
	if input.Date != nil {
		task.Date = input.Date
	}
	if input.ClearDeadline {
		task.Deadline = nil
	} else if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.OwnerID != nil {
		task.UserID = *input.OwnerID
	}
	if input.WorkspaceID != nil {
		task.WorkspaceID = *input.WorkspaceID
	}
}

// fanoutUnassignments handles the removed side of an assignment diff:
// non-privileged removees lose their task-scoped notifications, and every
// removee is told they were unassigned.
func (s *TaskService) fanoutUnassignments(actorID uint64, task *models.Task, members []models.WorkspaceMember, removed []uint64) {
	if len(removed) == 0 {
		return
	}

	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		s.logger.Warn("unassignment fanout skipped, actor lookup failed",
			zap.Uint64("task_id", task.ID), zap.Error(err))
		return
	}

	for _, userID := range removed {
		privileged := userID == task.UserID || authz.IsElevated(members, userID)
		if !privileged {
			if err := s.notifRepo.DeleteByTaskAndUsers(task.ID, []uint64{userID}); err != nil {
				s.logger.Warn("failed to purge task notifications for removed assignee",
					zap.Uint64("task_id", task.ID), zap.Uint64("user_id", userID), zap.Error(err))
			}
		}
		s.notifier.TaskUnassigned(actor, task, userID, privileged)
	}
}

// ensureMembers verifies every id belongs to the workspace roster.
func (s *TaskService) ensureMembers(userIDs []uint64, workspaceID uint64) error {
	count, err := s.taskRepo.CountMembersByIDs(userIDs, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidAssignee
	}
	return nil
}

func firstSuperadmin(members []models.WorkspaceMember) uint64 {
	for _, m := range members {
		if m.Role == models.WorkspaceRoleSuperadmin {
			return m.UserID
		}
	}
	return 0
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
