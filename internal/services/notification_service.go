package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Pusher is the real-time channel consumed by the fanout. Push is
// fire-and-forget: implementations never report delivery failures here.
type Pusher interface {
	SendToUser(userID uint64, eventType string, payload interface{})
}

// Classification windows for notification listing.
const (
	readNewWindow    = 24 * time.Hour
	viewedNewWindow  = 7 * 24 * time.Hour
	earlierMaxWindow = 30 * 24 * time.Hour
)

// NotificationService computes recipient sets for domain events and emits
// one persisted notification plus one push per recipient. Emission happens
// after the primary mutation has been persisted; failures here are logged
// and never fail the caller's request.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	hub       Pusher
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo repository.NotificationRepository, hub Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		hub:       hub,
		logger:    logger,
	}
}

// emit persists the batch, then pushes each row to its recipient. The push
// happens only after the write succeeded and cannot roll it back.
func (s *NotificationService) emit(notifications []models.Notification) {
	if len(notifications) == 0 {
		return
	}

	if err := s.notifRepo.CreateBatch(notifications); err != nil {
		s.logger.Error("notification fanout write failed",
			zap.String("type", string(notifications[0].Type)), zap.Error(err))
		return
	}

	for i := range notifications {
		n := &notifications[i]
		s.hub.SendToUser(n.UserID, string(n.Type), n)
	}
}

// base fills the fields shared by every row of one fanout. CreatorName is a
// snapshot of the actor's name at emission time.
func base(actor *models.User, typ models.NotificationType, message string) models.Notification {
	return models.Notification{
		Type:        typ,
		CreatorID:   actor.ID,
		CreatorName: actor.Username,
		Message:     message,
	}
}

// TaskCreated notifies the assignees and, distinctly, the workspace's
// elevated members. The actor receives nothing; an elevated assignee is
// notified once, as an assignee.
func (s *NotificationService) TaskCreated(actor *models.User, task *models.Task, ws *models.Workspace, assignedIDs []uint64, members []models.WorkspaceMember) {
	var batch []models.Notification
	notified := map[uint64]bool{actor.ID: true}

	for _, userID := range assignedIDs {
		if notified[userID] {
			continue
		}
		notified[userID] = true
		n := base(actor, models.NotificationTaskCreation,
			fmt.Sprintf("%s vous a assigné la tâche « %s »", actor.Username, task.Title))
		n.UserID = userID
		n.TaskID = &task.ID
		n.WorkspaceID = &task.WorkspaceID
		batch = append(batch, n)
	}

	for _, m := range members {
		if !m.Role.Elevated() || notified[m.UserID] {
			continue
		}
		notified[m.UserID] = true
		n := base(actor, models.NotificationTaskCreation,
			fmt.Sprintf("%s a créé la tâche « %s » dans l'espace de travail « %s »", actor.Username, task.Title, ws.Title))
		n.UserID = m.UserID
		n.TaskID = &task.ID
		n.WorkspaceID = &task.WorkspaceID
		batch = append(batch, n)
	}

	s.emit(batch)
}

// TaskDeleted notifies assignees and elevated members with distinct texts.
// Task-scoped rows referencing the deleted task are purged by the caller
// before this runs, so these rows deliberately carry no TaskID.
func (s *NotificationService) TaskDeleted(actor *models.User, task *models.Task, ws *models.Workspace, assignedIDs []uint64, members []models.WorkspaceMember) {
	var batch []models.Notification
	notified := map[uint64]bool{actor.ID: true}

	for _, userID := range assignedIDs {
		if notified[userID] {
			continue
		}
		notified[userID] = true
		n := base(actor, models.NotificationTaskDeletion,
			fmt.Sprintf("%s a supprimé la tâche « %s » qui vous était assignée", actor.Username, task.Title))
		n.UserID = userID
		n.WorkspaceID = &task.WorkspaceID
		batch = append(batch, n)
	}

	for _, m := range members {
		if !m.Role.Elevated() || notified[m.UserID] {
			continue
		}
		notified[m.UserID] = true
		n := base(actor, models.NotificationTaskDeletion,
			fmt.Sprintf("%s a supprimé la tâche « %s » de l'espace de travail « %s »", actor.Username, task.Title, ws.Title))
		n.UserID = m.UserID
		n.WorkspaceID = &task.WorkspaceID
		batch = append(batch, n)
	}

	s.emit(batch)
}

// TaskUnassigned notifies one removed assignee. The type depends on whether
// the removed user still holds elevated standing in the workspace.
func (s *NotificationService) TaskUnassigned(actor *models.User, task *models.Task, removedID uint64, stillElevated bool) {
	typ := models.NotificationTaskUnassigned
	if stillElevated {
		typ = models.NotificationTaskUnassignedAdmin
	}

	n := base(actor, typ,
		fmt.Sprintf("%s vous a retiré de la tâche « %s »", actor.Username, task.Title))
	n.UserID = removedID
	n.TaskID = &task.ID
	n.WorkspaceID = &task.WorkspaceID
	s.emit([]models.Notification{n})
}

// WorkspaceUpdated notifies every member except the actor.
func (s *NotificationService) WorkspaceUpdated(actor *models.User, ws *models.Workspace, members []models.WorkspaceMember) {
	var batch []models.Notification
	for _, m := range members {
		if m.UserID == actor.ID {
			continue
		}
		n := base(actor, models.NotificationWorkspaceUpdate,
			fmt.Sprintf("%s a modifié l'espace de travail « %s »", actor.Username, ws.Title))
		n.UserID = m.UserID
		n.WorkspaceID = &ws.ID
		batch = append(batch, n)
	}
	s.emit(batch)
}

// MemberRemoved notifies the removed user. The type matches the historical
// wire value shared with workspace deletion.
func (s *NotificationService) MemberRemoved(actor *models.User, ws *models.Workspace, removedID uint64) {
	n := base(actor, models.NotificationWorkspaceDeletion,
		fmt.Sprintf("%s vous a retiré de l'espace de travail « %s »", actor.Username, ws.Title))
	n.UserID = removedID
	s.emit([]models.Notification{n})
}

// MembersRemoved sends the aggregate roster-change notification to the
// remaining members. The message agrees in number with the removed set.
func (s *NotificationService) MembersRemoved(actor *models.User, ws *models.Workspace, removedNames []string, remaining []models.WorkspaceMember) {
	if len(removedNames) == 0 {
		return
	}

	var message string
	if len(removedNames) == 1 {
		message = fmt.Sprintf("%s a été retiré de l'espace de travail « %s »", removedNames[0], ws.Title)
	} else {
		message = fmt.Sprintf("%s ont été retirés de l'espace de travail « %s »", strings.Join(removedNames, ", "), ws.Title)
	}

	var batch []models.Notification
	for _, m := range remaining {
		if m.UserID == actor.ID {
			continue
		}
		n := base(actor, models.NotificationMembersRemoved, message)
		n.UserID = m.UserID
		n.WorkspaceID = &ws.ID
		batch = append(batch, n)
	}
	s.emit(batch)
}

// WorkspaceDeleted notifies the former members that the workspace is gone.
func (s *NotificationService) WorkspaceDeleted(actor *models.User, ws *models.Workspace, members []models.WorkspaceMember) {
	var batch []models.Notification
	for _, m := range members {
		if m.UserID == actor.ID {
			continue
		}
		n := base(actor, models.NotificationWorkspaceDeletion,
			fmt.Sprintf("%s a supprimé l'espace de travail « %s »", actor.Username, ws.Title))
		n.UserID = m.UserID
		batch = append(batch, n)
	}
	s.emit(batch)
}

// InvitationSent notifies the guest.
func (s *NotificationService) InvitationSent(sender *models.User, ws *models.Workspace, inv *models.WorkspaceInvitation) {
	n := base(sender, models.NotificationInvitation,
		fmt.Sprintf("%s vous a invité à rejoindre l'espace de travail « %s »", sender.Username, ws.Title))
	n.UserID = inv.GuestID
	n.WorkspaceID = &ws.ID
	n.InvitationID = &inv.ID
	s.emit([]models.Notification{n})
}

// InvitationAnswered notifies the sender of an acceptance or a decline.
func (s *NotificationService) InvitationAnswered(guest *models.User, ws *models.Workspace, inv *models.WorkspaceInvitation, accepted bool) {
	typ := models.NotificationInvitationDeclined
	verb := "décliné"
	if accepted {
		typ = models.NotificationInvitationAccepted
		verb = "accepté"
	}

	n := base(guest, typ,
		fmt.Sprintf("%s a %s votre invitation à « %s »", guest.Username, verb, ws.Title))
	n.UserID = inv.SenderID
	n.WorkspaceID = &ws.ID
	n.InvitationID = &inv.ID
	s.emit([]models.Notification{n})
}

// NotificationBuckets is the classified listing returned to clients.
type NotificationBuckets struct {
	New     []models.Notification `json:"new"`
	Earlier []models.Notification `json:"earlier"`
}

// List classifies a user's notifications into the new/earlier buckets.
// Rows outside both windows are omitted, not deleted.
func (s *NotificationService) List(userID uint64) (*NotificationBuckets, error) {
	notifications, err := s.notifRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	buckets := &NotificationBuckets{
		New:     []models.Notification{},
		Earlier: []models.Notification{},
	}
	now := time.Now()
	for _, n := range notifications {
		switch Classify(&n, now) {
		case BucketNew:
			buckets.New = append(buckets.New, n)
		case BucketEarlier:
			buckets.Earlier = append(buckets.Earlier, n)
		}
	}
	return buckets, nil
}

// Bucket names a classification outcome.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketNew
	BucketEarlier
)

// Classify places one notification in a listing bucket:
//
//   - new: unread and never viewed (within 30 days), viewed within 7 days,
//     or read and viewed within 24 hours
//   - earlier: read and viewed 24h-7d ago, or unread and viewed 7d-30d ago
//   - none: everything older; soft-archived by omission
func Classify(n *models.Notification, now time.Time) Bucket {
	if n.ViewedAt == nil {
		if n.Read {
			return BucketNone
		}
		if now.Sub(n.CreatedAt) <= earlierMaxWindow {
			return BucketNew
		}
		return BucketNone
	}

	age := now.Sub(*n.ViewedAt)
	if n.Read {
		switch {
		case age <= readNewWindow:
			return BucketNew
		case age <= viewedNewWindow:
			return BucketEarlier
		default:
			return BucketNone
		}
	}

	switch {
	case age <= viewedNewWindow:
		return BucketNew
	case age <= earlierMaxWindow:
		return BucketEarlier
	default:
		return BucketNone
	}
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(id, userID uint64) error {
	if err := s.notifRepo.MarkRead(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllViewed stamps the user's unviewed notifications.
func (s *NotificationService) MarkAllViewed(userID uint64) error {
	if err := s.notifRepo.MarkAllViewed(userID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark notifications viewed: %w", err)
	}
	return nil
}
