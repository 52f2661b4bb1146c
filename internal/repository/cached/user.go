package cached

import (
	"context"
	"fmt"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/cache"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
	"go.uber.org/zap"
)

// UserStore is the cache-aside credential store.
type UserStore struct {
	store  repository.UserRepository
	cache  Cache
	logger *zap.Logger
}

func NewUserStore(store repository.UserRepository, c Cache, logger *zap.Logger) *UserStore {
	return &UserStore{store: store, cache: c, logger: logger}
}

// GetByUsername returns the cached record as-is on a hit, even if the
// store has changed since. On a miss it reads the store and populates.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	key := cache.UserKey(username)

	var u models.User
	found, err := s.cache.GetJSON(ctx, key, &u)
	if err != nil {
		s.logger.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return &u, nil
	}

	stored, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	s.set(ctx, key, stored)
	return stored, nil
}

// GetByID has no cache key of its own.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *UserStore) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	found, err := s.cache.GetJSON(ctx, cache.AllUsersKey, &users)
	if err != nil {
		s.logger.Warn("user list cache read failed", zap.Error(err))
	}
	if found && users != nil {
		return users, nil
	}

	users, err = s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, cache.AllUsersKey, users)
	return users, nil
}

// Create checks the store (never the cache) for an existing username, then
// inserts. The check is advisory: it turns the common duplicate into an
// early error, but the store's unique constraint decides concurrent races.
//
// On success the user entry is written through and the list views are
// dropped so the new account shows up on the next read.
func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	existing, err := s.store.GetByUsername(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, apperr.ErrDuplicateUsername
	}

	created, err := s.store.Create(ctx, u)
	if err != nil {
		return nil, err
	}

	s.set(ctx, cache.UserKey(created.Username), created)
	s.invalidateLists(ctx)
	return created, nil
}

// UpdateStatus writes the store, then refreshes the user entry and drops
// the list views that embed the status.
func (s *UserStore) UpdateStatus(ctx context.Context, id, status string) (*models.User, error) {
	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil || updated == nil {
		return updated, err
	}

	s.set(ctx, cache.UserKey(updated.Username), updated)
	s.invalidateLists(ctx)
	return updated, nil
}

func (s *UserStore) set(ctx context.Context, key string, value any) {
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *UserStore) invalidateLists(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.AllUsersKey, cache.ContactsKey); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
