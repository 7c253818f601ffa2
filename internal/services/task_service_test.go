package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hokaccha/workhub-api/internal/cache"
	"github.com/hokaccha/workhub-api/internal/constants"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakePusher records pushed events instead of delivering them.
type fakePusher struct {
	events []pushedEvent
}

type pushedEvent struct {
	UserID uint64
	Type   string
}

func (p *fakePusher) SendToUser(userID uint64, eventType string, payload interface{}) {
	p.events = append(p.events, pushedEvent{UserID: userID, Type: eventType})
}

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	pusher  *fakePusher
	ctx     context.Context

	superadmin *models.User
	admin      *models.User
	member     *models.User
	assignee   *models.User
	ws         *models.Workspace
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.UserContact{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Notification{},
		&models.WorkspaceInvitation{},
		&models.WorkspaceInviteMark{},
	)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	wsRepo := repository.NewWorkspaceRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	notifRepo := repository.NewNotificationRepository(suite.db)

	logger := zap.NewNop()
	suite.pusher = &fakePusher{}
	notifier := NewNotificationService(notifRepo, suite.pusher, logger)
	listings := cache.NewListingCache(cache.Disabled{}, constants.TaskListCacheTTL, logger)

	suite.service = NewTaskService(taskRepo, wsRepo, userRepo, notifRepo, notifier, listings, logger)
	suite.ctx = context.Background()

	suite.superadmin = suite.createUser("alice")
	suite.admin = suite.createUser("bob")
	suite.member = suite.createUser("carol")
	suite.assignee = suite.createUser("dave")

	suite.ws = suite.createWorkspace("Test Workspace", suite.superadmin.ID)
	suite.addMember(suite.ws.ID, suite.superadmin, models.WorkspaceRoleSuperadmin)
	suite.addMember(suite.ws.ID, suite.admin, models.WorkspaceRoleAdmin)
	suite.addMember(suite.ws.ID, suite.member, models.WorkspaceRoleMember)
	suite.addMember(suite.ws.ID, suite.assignee, models.WorkspaceRoleMember)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) createUser(name string) *models.User {
	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.GlobalRoleUser,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskServiceTestSuite) createWorkspace(title string, creatorID uint64) *models.Workspace {
	ws := &models.Workspace{Title: title, CreatorID: creatorID}
	suite.Require().NoError(suite.db.Create(ws).Error)
	return ws
}

func (suite *TaskServiceTestSuite) addMember(wsID uint64, user *models.User, role models.WorkspaceRole) {
	member := &models.WorkspaceMember{
		WorkspaceID: wsID,
		UserID:      user.ID,
		Role:        role,
		Username:    user.Username,
		Email:       user.Email,
		JoinedAt:    time.Now(),
	}
	suite.Require().NoError(suite.db.Create(member).Error)
}

// createTask makes suite.member the owner and suite.assignee the only assignee.
func (suite *TaskServiceTestSuite) createTask(title string) *models.Task {
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Title:       title,
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.member.ID,
		AssignedTo:  []uint64{suite.assignee.ID},
	})
	suite.Require().NoError(err)
	return task
}

func strPtr(s string) *string                            { return &s }
func statusPtr(s models.TaskStatus) *models.TaskStatus   { return &s }
func prioPtr(p models.TaskPriority) *models.TaskPriority { return &p }

func (suite *TaskServiceTestSuite) TestCreateTask_DefaultsToCreatorAssignment() {
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Solo task",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.member.ID,
	})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), models.TaskStatusPending, task.Status)
	assert.Equal(suite.T(), models.TaskPriorityLow, task.Priority)
	assert.Equal(suite.T(), []uint64{suite.member.ID}, task.AssignedIDs())
}

func (suite *TaskServiceTestSuite) TestCreateTask_RejectsNonMemberAssignee() {
	outsider := suite.createUser("eve")

	_, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Bad assignment",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.member.ID,
		AssignedTo:  []uint64{outsider.ID},
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidAssignee)
}

func (suite *TaskServiceTestSuite) TestCreateTask_RejectsNonMemberCreator() {
	outsider := suite.createUser("eve")

	_, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Not my workspace",
		WorkspaceID: suite.ws.ID,
		CreatorID:   outsider.ID,
	})
	assert.ErrorIs(suite.T(), err, ErrNotWorkspaceMember)
}

func (suite *TaskServiceTestSuite) TestCreateTask_NotifiesAssigneesAndElevated() {
	suite.createTask("Fanout check")

	// One row for the assignee, one each for superadmin and admin. The
	// creator gets nothing.
	var notifications []models.Notification
	suite.Require().NoError(suite.db.Find(&notifications).Error)

	recipients := map[uint64]int{}
	for _, n := range notifications {
		recipients[n.UserID]++
		assert.Equal(suite.T(), suite.member.ID, n.CreatorID)
		assert.Equal(suite.T(), suite.member.Username, n.CreatorName)
	}
	assert.Equal(suite.T(), map[uint64]int{
		suite.assignee.ID:   1,
		suite.superadmin.ID: 1,
		suite.admin.ID:      1,
	}, recipients)

	assert.Len(suite.T(), suite.pusher.events, 3)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_PlainMemberForbidden() {
	task := suite.createTask("Locked down")
	bystander := suite.createUser("frank")
	suite.addMember(suite.ws.ID, bystander, models.WorkspaceRoleMember)

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, bystander.ID, UpdateTaskInput{
		Title: strPtr("Hijacked"),
	})
	assert.ErrorIs(suite.T(), err, ErrTaskForbidden)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AssigneeChangesUnrestrictedField() {
	task := suite.createTask("Editable")

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.assignee.ID, UpdateTaskInput{
		Title:  strPtr("Edited by assignee"),
		Status: statusPtr(models.TaskStatusInProgress),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Edited by assignee", updated.Title)
	assert.Equal(suite.T(), models.TaskStatusInProgress, updated.Status)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AssigneePriorityChangeForbidden() {
	task := suite.createTask("Restricted")

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.assignee.ID, UpdateTaskInput{
		Priority: prioPtr(models.TaskPriorityUrgent),
	})
	assert.ErrorIs(suite.T(), err, ErrTaskForbidden)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AssigneePriorityNoOpAllowed() {
	task := suite.createTask("Resent form")

	// Clients resend every field; an unchanged restricted value must pass
	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.assignee.ID, UpdateTaskInput{
		Title:    strPtr("Resent form edited"),
		Priority: prioPtr(task.Priority),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Resent form edited", updated.Title)
	assert.Equal(suite.T(), task.Priority, updated.Priority)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AtomicDenial() {
	task := suite.createTask("All or nothing")

	// Title alone would be allowed; the denied priority fails the request
	_, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.assignee.ID, UpdateTaskInput{
		Title:    strPtr("Should not stick"),
		Priority: prioPtr(models.TaskPriorityUrgent),
	})
	assert.ErrorIs(suite.T(), err, ErrTaskForbidden)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), "All or nothing", reloaded.Title)
	assert.Equal(suite.T(), task.Priority, reloaded.Priority)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_AssigneeArchiveForbidden() {
	task := suite.createTask("Not yours to archive")

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.assignee.ID, UpdateTaskInput{
		Status: statusPtr(models.TaskStatusArchived),
	})
	assert.ErrorIs(suite.T(), err, ErrTaskForbidden)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_OwnerArchivesAndUnarchives() {
	task := suite.createTask("Archive me")

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.member.ID, UpdateTaskInput{
		Status: statusPtr(models.TaskStatusArchived),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.TaskStatusArchived, updated.Status)
	suite.Require().NotNil(updated.ArchiveDate)

	updated, err = suite.service.UpdateTask(suite.ctx, task.ID, suite.member.ID, UpdateTaskInput{
		Status: statusPtr(models.TaskStatusPending),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.TaskStatusPending, updated.Status)
	assert.Nil(suite.T(), updated.ArchiveDate)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_EmptyAssignmentFallsBackToActor() {
	task := suite.createTask("Keep one assignee")

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.admin.ID, UpdateTaskInput{
		AssignedTo: &[]uint64{},
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []uint64{suite.admin.ID}, updated.AssignedIDs())
}

func (suite *TaskServiceTestSuite) TestUpdateTask_UnassignmentPurgesAndNotifies() {
	task := suite.createTask("Reassigned")
	suite.pusher.events = nil

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, suite.admin.ID, UpdateTaskInput{
		AssignedTo: &[]uint64{suite.member.ID},
	})
	suite.Require().NoError(err)

	// The removed assignee's task-scoped notifications are gone, replaced
	// by the unassignment notice
	var remaining []models.Notification
	suite.Require().NoError(suite.db.
		Where("user_id = ? AND task_id = ?", suite.assignee.ID, task.ID).
		Find(&remaining).Error)
	suite.Require().Len(remaining, 1)
	assert.Equal(suite.T(), models.NotificationTaskUnassigned, remaining[0].Type)
}

func (suite *TaskServiceTestSuite) TestDeleteTask_AssigneeForbidden() {
	task := suite.createTask("Protected")

	err := suite.service.DeleteTask(suite.ctx, task.ID, suite.assignee.ID)
	assert.ErrorIs(suite.T(), err, ErrTaskForbidden)
}

func (suite *TaskServiceTestSuite) TestDeleteTask_OwnerCascades() {
	task := suite.createTask("Doomed")

	err := suite.service.DeleteTask(suite.ctx, task.ID, suite.member.ID)
	suite.Require().NoError(err)

	var count int64
	suite.db.Model(&models.Task{}).Unscoped().Where("id = ?", task.ID).Count(&count)
	assert.Zero(suite.T(), count)

	suite.db.Model(&models.TaskAssignment{}).Unscoped().Where("task_id = ?", task.ID).Count(&count)
	assert.Zero(suite.T(), count)

	// Creation notifications referencing the task were purged; deletion
	// notices carry no task reference
	suite.db.Model(&models.Notification{}).Where("task_id = ?", task.ID).Count(&count)
	assert.Zero(suite.T(), count)

	var deletionNotices []models.Notification
	suite.Require().NoError(suite.db.
		Where("type = ?", models.NotificationTaskDeletion).
		Find(&deletionNotices).Error)
	assert.NotEmpty(suite.T(), deletionNotices)
	for _, n := range deletionNotices {
		assert.Nil(suite.T(), n.TaskID)
	}
}

func (suite *TaskServiceTestSuite) TestGetTask_HiddenFromNonMembers() {
	task := suite.createTask("Secret")
	outsider := suite.createUser("eve")

	_, err := suite.service.GetTask(task.ID, outsider.ID)
	assert.ErrorIs(suite.T(), err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestListTasks_RequiresMembership() {
	outsider := suite.createUser("eve")

	_, err := suite.service.ListTasks(suite.ctx, outsider.ID, suite.ws.ID, 1, 10)
	assert.ErrorIs(suite.T(), err, ErrNotWorkspaceMember)
}

func (suite *TaskServiceTestSuite) TestListTasks_ExcludesArchived() {
	suite.createTask("Active")
	archived := suite.createTask("Archived soon")
	_, err := suite.service.UpdateTask(suite.ctx, archived.ID, suite.member.ID, UpdateTaskInput{
		Status: statusPtr(models.TaskStatusArchived),
	})
	suite.Require().NoError(err)

	response, err := suite.service.ListTasks(suite.ctx, suite.member.ID, suite.ws.ID, 1, 10)
	suite.Require().NoError(err)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Active", response.Tasks[0].Title)

	archives, err := suite.service.ListArchived(suite.ctx, suite.member.ID, 1, 10)
	suite.Require().NoError(err)
	suite.Require().Len(archives.Tasks, 1)
	assert.Equal(suite.T(), "Archived soon", archives.Tasks[0].Title)
}

// memoryStore is an in-process Cache backend used to exercise the
// read-through and invalidation wiring end to end.
type memoryStore struct {
	entries map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string][]byte)}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryStore) Close() error { return nil }

func (suite *TaskServiceTestSuite) TestUpdateTask_OwnershipTransferRefreshesArchivePages() {
	taskRepo := repository.NewTaskRepository(suite.db)
	wsRepo := repository.NewWorkspaceRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	notifRepo := repository.NewNotificationRepository(suite.db)
	logger := zap.NewNop()
	notifier := NewNotificationService(notifRepo, &fakePusher{}, logger)
	listings := cache.NewListingCache(newMemoryStore(), constants.TaskListCacheTTL, logger)
	service := NewTaskService(taskRepo, wsRepo, userRepo, notifRepo, notifier, listings, logger)

	task := suite.createTask("Changes hands")
	_, err := service.UpdateTask(suite.ctx, task.ID, suite.member.ID, UpdateTaskInput{
		Status: statusPtr(models.TaskStatusArchived),
	})
	suite.Require().NoError(err)

	// Warm both owners' archive pages
	before, err := service.ListArchived(suite.ctx, suite.member.ID, 1, 10)
	suite.Require().NoError(err)
	suite.Require().Len(before.Tasks, 1)

	theirs, err := service.ListArchived(suite.ctx, suite.admin.ID, 1, 10)
	suite.Require().NoError(err)
	suite.Require().Len(theirs.Tasks, 0)

	newOwner := suite.admin.ID
	_, err = service.UpdateTask(suite.ctx, task.ID, suite.superadmin.ID, UpdateTaskInput{
		OwnerID: &newOwner,
	})
	suite.Require().NoError(err)

	// Neither owner may see the pre-transfer page
	after, err := service.ListArchived(suite.ctx, suite.member.ID, 1, 10)
	suite.Require().NoError(err)
	assert.Len(suite.T(), after.Tasks, 0)

	theirs, err = service.ListArchived(suite.ctx, suite.admin.ID, 1, 10)
	suite.Require().NoError(err)
	assert.Len(suite.T(), theirs.Tasks, 1)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
