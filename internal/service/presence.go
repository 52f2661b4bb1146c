package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/lalith-99/pulsechat/internal/repository"
	"go.uber.org/zap"
)

// StatusChange is the payload of user_status_changed.
type StatusChange struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// PresenceService owns user status. The store write comes first; the
// broadcast reports its outcome but never undoes it.
type PresenceService struct {
	users  repository.UserRepository
	fanout *realtime.Fanout
	logger *zap.Logger
}

func NewPresenceService(users repository.UserRepository, fanout *realtime.Fanout, logger *zap.Logger) *PresenceService {
	return &PresenceService{users: users, fanout: fanout, logger: logger}
}

// SetStatus stores status for userID and broadcasts the change. Setting
// the current status again is allowed and broadcasts again.
func (s *PresenceService) SetStatus(ctx context.Context, userID, status string) (*models.User, realtime.Delivery, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, realtime.Delivery{}, fmt.Errorf("status is required: %w", apperr.ErrInvalidInput)
	}

	updated, err := s.users.UpdateStatus(ctx, userID, status)
	if err != nil {
		return nil, realtime.Delivery{}, fmt.Errorf("set status: %w", err)
	}
	if updated == nil {
		return nil, realtime.Delivery{}, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}

	delivery := s.fanout.Notify(ctx, realtime.BroadcastChannel, realtime.Event{
		Type: realtime.EventUserStatusChanged,
		Data: StatusChange{UserID: updated.ID, Status: updated.Status},
	})
	return updated, delivery, nil
}
