package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
	"github.com/stretchr/testify/require"
)

// Compile-time proof that both stores satisfy the interfaces.
var (
	_ repository.UserRepository    = (*UserStore)(nil)
	_ repository.MessageRepository = (*MessageStore)(nil)
)

func TestUserStore_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewUserStore()

	created, err := s.Create(ctx, models.User{ID: "u1", Username: "alice", DisplayName: "Alice", Status: "offline"})
	req.NoError(err)
	req.Equal("u1", created.ID)

	byName, err := s.GetByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal("Alice", byName.DisplayName)

	byID, err := s.GetByID(ctx, "u1")
	req.NoError(err)
	req.Equal("alice", byID.Username)

	missing, err := s.GetByUsername(ctx, "nobody")
	req.NoError(err)
	req.Nil(missing)

	// Returned values are copies.
	byName.DisplayName = "mutated"
	again, _ := s.GetByUsername(ctx, "alice")
	req.Equal("Alice", again.DisplayName)
}

func TestUserStore_ConcurrentDuplicate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewUserStore()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, models.User{ID: string(rune('a' + i)), Username: "alice"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		req.ErrorIs(err, apperr.ErrDuplicateUsername)
	}
	req.Equal(1, ok)
}

func TestUserStore_ListAllOrderedAndStatus(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewUserStore()

	for _, u := range []models.User{
		{ID: "1", Username: "zed", DisplayName: "Zed"},
		{ID: "2", Username: "amy", DisplayName: "Amy"},
		{ID: "3", Username: "amy2", DisplayName: "Amy"},
	} {
		_, err := s.Create(ctx, u)
		req.NoError(err)
	}

	users, err := s.ListAll(ctx)
	req.NoError(err)
	req.Equal([]string{"amy", "amy2", "zed"}, []string{users[0].Username, users[1].Username, users[2].Username})

	updated, err := s.UpdateStatus(ctx, "1", "online")
	req.NoError(err)
	req.Equal("online", updated.Status)

	missing, err := s.UpdateStatus(ctx, "nope", "online")
	req.NoError(err)
	req.Nil(missing)
}

func TestMessageStore_ConversationBothDirections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMessageStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	req.NoError(s.Save(ctx, models.Message{ID: "m2", SenderID: "b", ReceiverID: "a", Timestamp: t0.Add(time.Second)}))
	req.NoError(s.Save(ctx, models.Message{ID: "m1", SenderID: "a", ReceiverID: "b", Timestamp: t0}))
	req.NoError(s.Save(ctx, models.Message{ID: "m3", SenderID: "a", ReceiverID: "c", Timestamp: t0}))
	req.NoError(s.Save(ctx, models.Message{ID: "m1", SenderID: "a", ReceiverID: "b", Timestamp: t0}))

	ab, err := s.ListConversation(ctx, "a", "b")
	req.NoError(err)
	ba, err := s.ListConversation(ctx, "b", "a")
	req.NoError(err)
	req.Equal(ab, ba)
	req.Len(ab, 2)
	req.Equal("m1", ab[0].ID)
	req.Equal("m2", ab[1].ID)
}

func TestMessageStore_StatusAndLatest(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMessageStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	req.NoError(s.Save(ctx, models.Message{ID: "m1", SenderID: "a", ReceiverID: "b", Timestamp: t0, Status: models.DeliverySent}))
	req.NoError(s.Save(ctx, models.Message{ID: "m2", SenderID: "a", ReceiverID: "b", Timestamp: t0.Add(time.Minute), Status: models.DeliverySent}))
	req.NoError(s.Save(ctx, models.Message{ID: "m3", SenderID: "b", ReceiverID: "a", Timestamp: t0.Add(2 * time.Minute)}))

	updated, err := s.UpdateStatus(ctx, "m1", models.DeliveryRead)
	req.NoError(err)
	req.Equal(models.DeliveryRead, updated.Status)

	got, err := s.GetByID(ctx, "m1")
	req.NoError(err)
	req.Equal(models.DeliveryRead, got.Status)

	latest, err := s.LatestSent(ctx, "a")
	req.NoError(err)
	req.Len(latest, 1)
	req.Equal("m2", latest[0].ID)

	missing, err := s.UpdateStatus(ctx, "nope", models.DeliveryRead)
	req.NoError(err)
	req.Nil(missing)
}
