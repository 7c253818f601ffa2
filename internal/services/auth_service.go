package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hokaccha/workhub-api/internal/constants"
	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateWs     = errors.New("failed to create default workspace")
	ErrFailedToAddMember    = errors.New("failed to add user to workspace")
)

// AuthService handles signup, login and visitor account lifecycle.
type AuthService struct {
	userRepo  repository.UserRepository
	wsRepo    repository.WorkspaceRepository
	taskRepo  repository.TaskRepository
	notifRepo repository.NotificationRepository
	invRepo   repository.InvitationRepository
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	wsRepo repository.WorkspaceRepository,
	taskRepo repository.TaskRepository,
	notifRepo repository.NotificationRepository,
	invRepo repository.InvitationRepository,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		wsRepo:    wsRepo,
		taskRepo:  taskRepo,
		notifRepo: notifRepo,
		invRepo:   invRepo,
		logger:    logger,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup creates a new user along with their default workspace.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.GlobalRoleUser,
	}

	ws := &models.Workspace{
		Title:       fmt.Sprintf("Espace de %s", username),
		Description: "Espace de travail par défaut",
	}

	member := &models.WorkspaceMember{
		Role:     models.WorkspaceRoleSuperadmin,
		JoinedAt: time.Now(),
	}

	if err := s.userRepo.CreateWithDefaultWorkspace(user, ws, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateWorkspace):
			return nil, ErrFailedToCreateWs
		case errors.Is(err, repository.ErrCreateWorkspaceMember):
			return nil, ErrFailedToAddMember
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Login    string
	Password string
}

// Login verifies credentials and returns the authenticated user. The login
// field matches either the username or the email.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(input.Login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.userRepo.FindByEmail(strings.ToLower(input.Login))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// CreateVisitor creates a throwaway visitor account with its own default
// workspace and a sample task. Visitors expire and are swept with all their
// data.
func (s *AuthService) CreateVisitor() (*models.User, error) {
	suffix := uuid.NewString()[:8]
	expiresAt := time.Now().Add(constants.VisitorLifetime)

	password := uuid.NewString()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     fmt.Sprintf("visiteur-%s", suffix),
		Email:        fmt.Sprintf("visiteur-%s@workhub.local", suffix),
		PasswordHash: string(hashedPassword),
		Role:         models.GlobalRoleVisitor,
		ExpiresAt:    &expiresAt,
	}

	ws := &models.Workspace{
		Title:       "Espace de découverte",
		Description: "Espace de travail par défaut",
	}

	member := &models.WorkspaceMember{
		Role:     models.WorkspaceRoleSuperadmin,
		JoinedAt: time.Now(),
	}

	if err := s.userRepo.CreateWithDefaultWorkspace(user, ws, member); err != nil {
		return nil, fmt.Errorf("failed to create visitor: %w", err)
	}

	sample := &models.Task{
		Title:       "Bienvenue sur WorkHub",
		Description: "Créez, assignez et archivez vos tâches depuis cet espace.",
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
		UserID:      user.ID,
		WorkspaceID: ws.ID,
	}
	if err := s.taskRepo.Create(sample); err != nil {
		s.logger.Warn("failed to create sample task for visitor",
			zap.Uint64("user_id", user.ID), zap.Error(err))
	} else if err := s.taskRepo.AssignUsers(sample.ID, []uint64{user.ID}); err != nil {
		s.logger.Warn("failed to assign sample task to visitor",
			zap.Uint64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// SweepExpiredVisitors removes visitor accounts past their expiry along with
// the workspaces they created and their memberships elsewhere. Returns the
// number of accounts removed.
func (s *AuthService) SweepExpiredVisitors(now time.Time) (int, error) {
	expired, err := s.userRepo.ListExpiredVisitors(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired visitors: %w", err)
	}

	swept := 0
	for i := range expired {
		visitor := &expired[i]
		if err := s.sweepVisitor(visitor); err != nil {
			s.logger.Error("failed to sweep visitor",
				zap.Uint64("user_id", visitor.ID), zap.Error(err))
			continue
		}
		swept++
	}

	return swept, nil
}

func (s *AuthService) sweepVisitor(visitor *models.User) error {
	memberships, err := s.wsRepo.ListMembersByUserID(visitor.ID)
	if err != nil {
		return fmt.Errorf("failed to list memberships: %w", err)
	}

	for _, m := range memberships {
		ws, err := s.wsRepo.FindByID(m.WorkspaceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return fmt.Errorf("failed to find workspace: %w", err)
		}

		if ws.CreatorID == visitor.ID {
			if err := s.notifRepo.DeleteByWorkspace(ws.ID); err != nil {
				return fmt.Errorf("failed to delete workspace notifications: %w", err)
			}
			if err := s.invRepo.DeleteByWorkspace(ws.ID); err != nil {
				return fmt.Errorf("failed to delete workspace invitations: %w", err)
			}
			if err := s.taskRepo.DeleteByWorkspace(ws.ID); err != nil {
				return fmt.Errorf("failed to delete workspace tasks: %w", err)
			}
			if err := s.wsRepo.Delete(ws.ID); err != nil {
				return fmt.Errorf("failed to delete workspace: %w", err)
			}
			continue
		}

		if err := s.notifRepo.DeleteByWorkspaceAndUsers(ws.ID, []uint64{visitor.ID}); err != nil {
			return fmt.Errorf("failed to delete workspace notifications: %w", err)
		}
		if err := s.wsRepo.RemoveMember(ws.ID, visitor.ID); err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}
	}

	if err := s.notifRepo.DeleteByUser(visitor.ID); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	if err := s.userRepo.Delete(visitor.ID); err != nil {
		return fmt.Errorf("failed to delete visitor: %w", err)
	}

	return nil
}
