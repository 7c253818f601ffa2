package services

import (
	"errors"
	"fmt"

	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/hokaccha/workhub-api/internal/repository"
	"gorm.io/gorm"
)

var ErrSelfContact = errors.New("cannot add yourself as a contact")

// UserService manages a user's contact and blocked lists. A pair of users
// holds at most one edge, so a contact and a block never coexist.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ContactLists splits a user's edges into contacts and blocked users.
type ContactLists struct {
	Contacts []models.User
	Blocked  []models.User
}

// ListContacts returns the user's contacts and blocked users.
func (s *UserService) ListContacts(userID uint64) (*ContactLists, error) {
	edges, err := s.userRepo.ListContacts(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	lists := &ContactLists{}
	for _, edge := range edges {
		if edge.Blocked {
			lists.Blocked = append(lists.Blocked, edge.Contact)
		} else {
			lists.Contacts = append(lists.Contacts, edge.Contact)
		}
	}
	return lists, nil
}

// AddContact adds a user to the contact list. Adding a blocked user
// unblocks them.
func (s *UserService) AddContact(userID, contactID uint64) error {
	return s.setEdge(userID, contactID, false)
}

// BlockUser moves a user to the blocked list, dropping any existing contact.
func (s *UserService) BlockUser(userID, contactID uint64) error {
	return s.setEdge(userID, contactID, true)
}

// RemoveContact deletes the edge whether it was a contact or a block.
func (s *UserService) RemoveContact(userID, contactID uint64) error {
	if err := s.userRepo.RemoveContact(userID, contactID); err != nil {
		return fmt.Errorf("failed to remove contact: %w", err)
	}
	return nil
}

func (s *UserService) setEdge(userID, contactID uint64, blocked bool) error {
	if userID == contactID {
		return ErrSelfContact
	}
	if _, err := s.userRepo.FindByID(contactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if err := s.userRepo.SetContact(userID, contactID, blocked); err != nil {
		return fmt.Errorf("failed to set contact: %w", err)
	}
	return nil
}
