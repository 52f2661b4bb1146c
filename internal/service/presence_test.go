package service

import (
	"context"
	"testing"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPresenceService_SetStatus(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", "alice")

	// Warm the cache so the refresh is observable.
	_, err := f.users.GetByUsername(ctx, "alice")
	req.NoError(err)
	_, err = f.users.ListAll(ctx)
	req.NoError(err)

	want := realtime.Event{
		Type: realtime.EventUserStatusChanged,
		Data: StatusChange{UserID: "u1", Status: "away"},
	}
	f.pub.EXPECT().Publish(gomock.Any(), realtime.BroadcastChannel, want).Return(nil).Times(2)

	for range 2 {
		updated, delivery, err := f.presence.SetStatus(ctx, "u1", "away")
		req.NoError(err)
		req.True(delivery.Delivered())
		req.Equal("away", updated.Status)
	}

	cachedUser, err := f.users.GetByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal("away", cachedUser.Status)
	req.False(f.mr.Exists("user:all"))
}

func TestPresenceService_BroadcastFailureKeepsStatus(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "u1", "alice")
	f.capture(realtime.BroadcastChannel)

	_, delivery, err := f.presence.SetStatus(ctx, "u1", "online")
	req.NoError(err)
	req.ErrorIs(delivery.Err, apperr.ErrPublishUnavailable)

	u, err := f.users.GetByID(ctx, "u1")
	req.NoError(err)
	req.Equal("online", u.Status)
}

func TestPresenceService_Errors(t *testing.T) {
	f := newFixture(t)
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, _, err := f.presence.SetStatus(context.Background(), "ghost", "online")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = f.presence.SetStatus(context.Background(), "ghost", "  ")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
