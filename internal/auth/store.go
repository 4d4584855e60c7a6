package auth

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (AdminUser, error)
	GetByID(ctx context.Context, id string) (AdminUser, error)
	Create(ctx context.Context, user AdminUser) error
}

type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]AdminUser
	byEmail map[string]string
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[string]AdminUser),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryUserStore) GetByEmail(_ context.Context, email string) (AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return AdminUser{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *InMemoryUserStore) GetByID(_ context.Context, id string) (AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return AdminUser{}, ErrUserNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) Create(_ context.Context, user AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}
