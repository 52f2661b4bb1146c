package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lalith-99/pulsechat/internal/auth"
	"github.com/lalith-99/pulsechat/internal/cache"
	"github.com/lalith-99/pulsechat/internal/mocks"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/lalith-99/pulsechat/internal/repository/cached"
	"github.com/lalith-99/pulsechat/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const testWSURL = "ws://localhost:8000/connection/websocket"

// fixture wires the services the way main does, over memory stores, a
// miniredis cache and a mock broker.
type fixture struct {
	pub       *mocks.MockPublisher
	mr        *miniredis.Miniredis
	userStore *memory.UserStore
	users     *cached.UserStore
	tokens    *auth.TokenService
	accounts  *AccountService
	presence  *PresenceService
	messages  *MessageService
	calls     *CallRelay
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	c := cache.New(client, cache.DefaultTTL, logger)

	userStore := memory.NewUserStore()
	users := cached.NewUserStore(userStore, c, logger)
	msgs := cached.NewMessageStore(memory.NewMessageStore(), c, logger)
	fanout := realtime.NewFanout(pub, logger)

	tokens, err := auth.NewTokenService("access-secret", "HS256", "channel-secret", "HS256")
	require.NoError(t, err)

	presence := NewPresenceService(users, fanout, logger)
	accounts := NewAccountService(users, auth.NewBcryptHasher(4), tokens, presence, c,
		AccountConfig{AccessTokenTTL: time.Hour, WSURL: testWSURL}, logger)

	return &fixture{
		pub:       pub,
		mr:        mr,
		userStore: userStore,
		users:     users,
		tokens:    tokens,
		accounts:  accounts,
		presence:  presence,
		messages:  NewMessageService(msgs, users, accounts, fanout, logger),
		calls:     NewCallRelay(fanout, logger),
	}
}

// seedUser creates a user straight in the store, bypassing the cache.
func (f *fixture) seedUser(t *testing.T, id, username string) models.User {
	t.Helper()
	u, err := f.userStore.Create(context.Background(), models.User{
		ID:           id,
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
		Status:       models.StatusOffline,
	})
	require.NoError(t, err)
	return *u
}

// capture records every publish and lets the ones to failChannels fail.
func (f *fixture) capture(failChannels ...string) map[string][]realtime.Event {
	events := make(map[string][]realtime.Event)
	fail := make(map[string]bool)
	for _, ch := range failChannels {
		fail[ch] = true
	}
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ch string, ev realtime.Event) error {
			events[ch] = append(events[ch], ev)
			if fail[ch] {
				return errPublish
			}
			return nil
		}).AnyTimes()
	return events
}

type steppingClock struct{ t time.Time }

func (c *steppingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}
