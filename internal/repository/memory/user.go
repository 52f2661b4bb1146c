// Package memory holds in-process implementations of the repository
// interfaces. They back STORE_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
)

type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]*models.User
	byUsername map[string]string // username -> id
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]*models.User),
		byUsername: make(map[string]string),
	}
}

// Create plays the role of the unique index: the existence check and the
// insert happen under the same lock.
func (s *UserStore) Create(_ context.Context, u models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[u.Username]; taken {
		return nil, apperr.ErrDuplicateUsername
	}
	stored := u
	s.byID[u.ID] = &stored
	s.byUsername[u.Username] = u.ID

	out := stored
	return &out, nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *UserStore) ListAll(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	users := make([]models.User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, *u)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *UserStore) UpdateStatus(_ context.Context, id, status string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	u.Status = status
	out := *u
	return &out, nil
}
