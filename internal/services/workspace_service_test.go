package services

import (
	"context"
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

// WorkspaceServiceTestSuite defines the test suite for WorkspaceService
type WorkspaceServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	service     *WorkspaceService
	taskService *TaskService
	invitations *InvitationService
	ctx         context.Context

	superadmin *models.User
	member     *models.User
	ws         *models.Workspace
}

// SetupTest runs before each test
func (suite *WorkspaceServiceTestSuite) SetupTest() {
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
	invRepo := repository.NewInvitationRepository(suite.db)

	logger := zap.NewNop()
	notifier := NewNotificationService(notifRepo, &fakePusher{}, logger)
	listings := cache.NewListingCache(cache.Disabled{}, constants.TaskListCacheTTL, logger)

	suite.service = NewWorkspaceService(wsRepo, taskRepo, userRepo, invRepo, notifRepo, notifier, listings, logger)
	suite.taskService = NewTaskService(taskRepo, wsRepo, userRepo, notifRepo, notifier, listings, logger)
	suite.invitations = NewInvitationService(invRepo, wsRepo, userRepo, notifier, listings, logger)
	suite.ctx = context.Background()

	suite.superadmin = suite.createUser("alice")
	suite.member = suite.createUser("bob")

	suite.ws = suite.createWorkspace("Team", suite.superadmin.ID, false)
	suite.addMember(suite.ws.ID, suite.superadmin, models.WorkspaceRoleSuperadmin)
	suite.addMember(suite.ws.ID, suite.member, models.WorkspaceRoleMember)
}

// TearDownTest runs after each test
func (suite *WorkspaceServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *WorkspaceServiceTestSuite) createUser(name string) *models.User {
	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.GlobalRoleUser,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *WorkspaceServiceTestSuite) createWorkspace(title string, creatorID uint64, isDefault bool) *models.Workspace {
	ws := &models.Workspace{Title: title, CreatorID: creatorID, IsDefault: isDefault}
	suite.Require().NoError(suite.db.Create(ws).Error)
	return ws
}

func (suite *WorkspaceServiceTestSuite) addMember(wsID uint64, user *models.User, role models.WorkspaceRole) {
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

// rosterWithout builds the proposed roster of suite.ws minus the given users.
func (suite *WorkspaceServiceTestSuite) rosterWithout(excluded ...uint64) *[]MemberInput {
	var members []models.WorkspaceMember
	suite.Require().NoError(suite.db.Where("workspace_id = ?", suite.ws.ID).Find(&members).Error)

	var proposed []MemberInput
	for _, m := range members {
		skip := false
		for _, ex := range excluded {
			if m.UserID == ex {
				skip = true
				break
			}
		}
		if !skip {
			proposed = append(proposed, MemberInput{UserID: m.UserID, Role: m.Role})
		}
	}
	if proposed == nil {
		proposed = []MemberInput{}
	}
	return &proposed
}

func (suite *WorkspaceServiceTestSuite) TestCreateWorkspace_CreatorIsSuperadmin() {
	ws, err := suite.service.CreateWorkspace(CreateWorkspaceInput{
		Title:     "New space",
		CreatorID: suite.member.ID,
	})
	suite.Require().NoError(err)

	var member models.WorkspaceMember
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND user_id = ?", ws.ID, suite.member.ID).
		First(&member).Error)
	assert.Equal(suite.T(), models.WorkspaceRoleSuperadmin, member.Role)
	assert.Equal(suite.T(), suite.member.Username, member.Username)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_MemberForbidden() {
	_, err := suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.member.ID, UpdateWorkspaceInput{
		Title: strPtr("Renamed"),
	})
	assert.ErrorIs(suite.T(), err, ErrWorkspaceForbidden)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_TitleChangeNotifiesRoster() {
	_, err := suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Title: strPtr("Renamed"),
	})
	suite.Require().NoError(err)

	var notifications []models.Notification
	suite.Require().NoError(suite.db.
		Where("type = ?", models.NotificationWorkspaceUpdate).
		Find(&notifications).Error)
	suite.Require().Len(notifications, 1)
	assert.Equal(suite.T(), suite.member.ID, notifications[0].UserID)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_NewMemberGetsInvitation() {
	guest := suite.createUser("carol")

	proposed := append(*suite.rosterWithout(), MemberInput{UserID: guest.ID, Role: models.WorkspaceRoleMember})
	_, err := suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Members: &proposed,
	})
	suite.Require().NoError(err)

	// Adding to the roster sends an invitation; membership waits for accept
	var count int64
	suite.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", suite.ws.ID, guest.ID).
		Count(&count)
	assert.Zero(suite.T(), count)

	var inv models.WorkspaceInvitation
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND guest_id = ?", suite.ws.ID, guest.ID).
		First(&inv).Error)
	assert.Equal(suite.T(), models.InvitationPending, inv.Status)

	var mark models.WorkspaceInviteMark
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND invitation_id = ?", suite.ws.ID, inv.ID).
		First(&mark).Error)
	assert.Equal(suite.T(), models.InvitationPending, mark.Status)

	// Accepting joins with the invited role and clears the marker
	_, err = suite.invitations.Accept(suite.ctx, inv.ID, guest.ID)
	suite.Require().NoError(err)

	var member models.WorkspaceMember
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND user_id = ?", suite.ws.ID, guest.ID).
		First(&member).Error)
	assert.Equal(suite.T(), models.WorkspaceRoleMember, member.Role)

	err = suite.db.Where("workspace_id = ? AND invitation_id = ?", suite.ws.ID, inv.ID).First(&mark).Error
	assert.ErrorIs(suite.T(), err, gorm.ErrRecordNotFound)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_ReinviteAfterDecline() {
	guest := suite.createUser("carol")

	proposed := append(*suite.rosterWithout(), MemberInput{UserID: guest.ID, Role: models.WorkspaceRoleMember})
	_, err := suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Members: &proposed,
	})
	suite.Require().NoError(err)

	var first models.WorkspaceInvitation
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND guest_id = ?", suite.ws.ID, guest.ID).
		First(&first).Error)
	suite.Require().NoError(suite.invitations.Decline(first.ID, guest.ID))

	// Re-inviting retires the declined row and opens a fresh pending one
	_, err = suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Members: &proposed,
	})
	suite.Require().NoError(err)

	var invitations []models.WorkspaceInvitation
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND guest_id = ?", suite.ws.ID, guest.ID).
		Order("id").
		Find(&invitations).Error)
	suite.Require().Len(invitations, 2)
	assert.Equal(suite.T(), models.InvitationCancelled, invitations[0].Status)
	assert.Equal(suite.T(), models.InvitationPending, invitations[1].Status)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_RemoveMemberCascades() {
	// The member owns no tasks but is the sole assignee of one
	task, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Orphan candidate",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.superadmin.ID,
		AssignedTo:  []uint64{suite.member.ID},
	})
	suite.Require().NoError(err)

	_, err = suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Members: suite.rosterWithout(suite.member.ID),
	})
	suite.Require().NoError(err)

	// Membership gone
	var count int64
	suite.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", suite.ws.ID, suite.member.ID).
		Count(&count)
	assert.Zero(suite.T(), count)

	// The emptied assignment set falls back to the acting superadmin
	reloaded, err := suite.taskService.GetTask(task.ID, suite.superadmin.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []uint64{suite.superadmin.ID}, reloaded.AssignedIDs())

	// The removee keeps exactly one notification: the removal notice
	var notifications []models.Notification
	suite.Require().NoError(suite.db.
		Where("user_id = ?", suite.member.ID).
		Find(&notifications).Error)
	suite.Require().Len(notifications, 1)
	assert.Equal(suite.T(), models.NotificationWorkspaceDeletion, notifications[0].Type)
}

func (suite *WorkspaceServiceTestSuite) TestDeleteWorkspace_ReHomesOwnedTasks() {
	def := suite.createWorkspace("Espace de alice", suite.superadmin.ID, true)
	suite.addMember(def.ID, suite.superadmin, models.WorkspaceRoleSuperadmin)

	mine, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Comes along",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.superadmin.ID,
	})
	suite.Require().NoError(err)

	theirs, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Goes down with the ship",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.member.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID))

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, mine.ID).Error)
	assert.Equal(suite.T(), def.ID, reloaded.WorkspaceID)

	err = suite.db.First(&models.Task{}, theirs.ID).Error
	assert.ErrorIs(suite.T(), err, gorm.ErrRecordNotFound)

	err = suite.db.First(&models.Workspace{}, suite.ws.ID).Error
	assert.ErrorIs(suite.T(), err, gorm.ErrRecordNotFound)

	// The former member was told
	var notifications []models.Notification
	suite.Require().NoError(suite.db.
		Where("user_id = ? AND type = ?", suite.member.ID, models.NotificationWorkspaceDeletion).
		Find(&notifications).Error)
	assert.Len(suite.T(), notifications, 1)
}

func (suite *WorkspaceServiceTestSuite) TestDeleteWorkspace_DefaultSynthesizesReplacement() {
	def := suite.createWorkspace("Espace de alice", suite.superadmin.ID, true)
	suite.addMember(def.ID, suite.superadmin, models.WorkspaceRoleSuperadmin)

	task, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Survivor",
		WorkspaceID: def.ID,
		CreatorID:   suite.superadmin.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteWorkspace(suite.ctx, def.ID, suite.superadmin.ID))

	// A fresh default exists and holds the re-homed task
	var fresh models.Workspace
	suite.Require().NoError(suite.db.
		Where("creator_id = ? AND is_default = ?", suite.superadmin.ID, true).
		First(&fresh).Error)
	assert.NotEqual(suite.T(), def.ID, fresh.ID)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), fresh.ID, reloaded.WorkspaceID)
}

func (suite *WorkspaceServiceTestSuite) TestDeleteWorkspace_GuestActorKeepsCreatorDefault() {
	// The creator's default workspace, with another superadmin invited in
	def := suite.createWorkspace("Espace de alice", suite.superadmin.ID, true)
	suite.addMember(def.ID, suite.superadmin, models.WorkspaceRoleSuperadmin)
	suite.addMember(def.ID, suite.member, models.WorkspaceRoleSuperadmin)

	guestDefault := suite.createWorkspace("Espace de bob", suite.member.ID, true)
	suite.addMember(guestDefault.ID, suite.member, models.WorkspaceRoleSuperadmin)

	task, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Stays with alice",
		WorkspaceID: def.ID,
		CreatorID:   suite.superadmin.ID,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteWorkspace(suite.ctx, def.ID, suite.member.ID))

	// The creator still has exactly one default holding their task
	var defaults []models.Workspace
	suite.Require().NoError(suite.db.
		Where("creator_id = ? AND is_default = ?", suite.superadmin.ID, true).
		Find(&defaults).Error)
	suite.Require().Len(defaults, 1)
	assert.NotEqual(suite.T(), def.ID, defaults[0].ID)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), defaults[0].ID, reloaded.WorkspaceID)

	var fresh models.WorkspaceMember
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND user_id = ?", defaults[0].ID, suite.superadmin.ID).
		First(&fresh).Error)
	assert.Equal(suite.T(), models.WorkspaceRoleSuperadmin, fresh.Role)

	// The acting guest's own default is untouched
	var mine int64
	suite.Require().NoError(suite.db.Model(&models.Workspace{}).
		Where("creator_id = ? AND is_default = ?", suite.member.ID, true).
		Count(&mine).Error)
	assert.Equal(suite.T(), int64(1), mine)
}

func (suite *WorkspaceServiceTestSuite) TestUpdateWorkspace_MemberRoleChangeApplied() {
	proposed := []MemberInput{
		{UserID: suite.superadmin.ID, Role: models.WorkspaceRoleSuperadmin},
		{UserID: suite.member.ID, Role: models.WorkspaceRoleAdmin},
	}
	_, err := suite.service.UpdateWorkspace(suite.ctx, suite.ws.ID, suite.superadmin.ID, UpdateWorkspaceInput{
		Members: &proposed,
	})
	suite.Require().NoError(err)

	var member models.WorkspaceMember
	suite.Require().NoError(suite.db.
		Where("workspace_id = ? AND user_id = ?", suite.ws.ID, suite.member.ID).
		First(&member).Error)
	assert.Equal(suite.T(), models.WorkspaceRoleAdmin, member.Role)

	// A re-ranked member is not re-invited
	var invitations int64
	suite.Require().NoError(suite.db.Model(&models.WorkspaceInvitation{}).
		Where("workspace_id = ? AND guest_id = ?", suite.ws.ID, suite.member.ID).
		Count(&invitations).Error)
	assert.Equal(suite.T(), int64(0), invitations)
}

func (suite *WorkspaceServiceTestSuite) TestExitWorkspace_OwnerFallbackForAssignments() {
	// The leaver is the only assignee of a task owned by the superadmin
	task, err := suite.taskService.CreateTask(suite.ctx, CreateTaskInput{
		Title:       "Left behind",
		WorkspaceID: suite.ws.ID,
		CreatorID:   suite.superadmin.ID,
		AssignedTo:  []uint64{suite.member.ID},
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.ExitWorkspace(suite.ctx, suite.ws.ID, suite.member.ID))

	var count int64
	suite.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", suite.ws.ID, suite.member.ID).
		Count(&count)
	assert.Zero(suite.T(), count)

	// The leaver is gone from the roster, so the task owner takes over
	reloaded, err := suite.taskService.GetTask(task.ID, suite.superadmin.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []uint64{suite.superadmin.ID}, reloaded.AssignedIDs())

	// Remaining members get the aggregate notice
	var notifications []models.Notification
	suite.Require().NoError(suite.db.
		Where("user_id = ? AND type = ?", suite.superadmin.ID, models.NotificationMembersRemoved).
		Find(&notifications).Error)
	assert.Len(suite.T(), notifications, 1)
}

func (suite *WorkspaceServiceTestSuite) TestGetWorkspace_HiddenFromNonMembers() {
	outsider := suite.createUser("eve")

	_, err := suite.service.GetWorkspace(suite.ws.ID, outsider.ID)
	assert.ErrorIs(suite.T(), err, ErrWorkspaceNotFound)
}

func TestWorkspaceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkspaceServiceTestSuite))
}
