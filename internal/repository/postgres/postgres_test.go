package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/db"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsUniqueViolation(t *testing.T) {
	req := require.New(t)
	req.True(isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	req.False(isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	req.False(isUniqueViolation(errors.New("23505")))
}

func TestStoreErr(t *testing.T) {
	cause := errors.New("conn reset")
	err := storeErr("get user", cause)
	require.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	require.ErrorIs(t, err, cause)
}

// newTestDB connects to PULSECHAT_TEST_DATABASE_URL and migrates it. The
// tests that need it are skipped when it is unset.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	url := os.Getenv("PULSECHAT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PULSECHAT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := db.New(ctx, url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.Migrate(ctx))
	return database
}

func newUser(username string) models.User {
	return models.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Status:       models.StatusOffline,
	}
}

func TestUserStore_Postgres(t *testing.T) {
	database := newTestDB(t)
	store := NewUserStore(database.Pool())
	ctx := context.Background()
	username := "pg-" + uuid.NewString()[:8]

	t.Run("concurrent create has one winner", func(t *testing.T) {
		req := require.New(t)
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = store.Create(ctx, newUser(username))
			}()
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
	})

	t.Run("lookup and status", func(t *testing.T) {
		req := require.New(t)
		u, err := store.GetByUsername(ctx, username)
		req.NoError(err)
		req.NotNil(u)

		updated, err := store.UpdateStatus(ctx, u.ID, models.StatusOnline)
		req.NoError(err)
		req.Equal(models.StatusOnline, updated.Status)

		missing, err := store.GetByID(ctx, "no-such-id")
		req.NoError(err)
		req.Nil(missing)
	})
}

func TestMessageStore_Postgres(t *testing.T) {
	req := require.New(t)
	database := newTestDB(t)
	users := NewUserStore(database.Pool())
	store := NewMessageStore(database.Pool())
	ctx := context.Background()

	a, err := users.Create(ctx, newUser("pg-a-"+uuid.NewString()[:8]))
	req.NoError(err)
	b, err := users.Create(ctx, newUser("pg-b-"+uuid.NewString()[:8]))
	req.NoError(err)

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := models.Message{ID: uuid.NewString(), SenderID: a.ID, ReceiverID: b.ID, Content: "one", Timestamp: base, Status: models.DeliverySent}
	second := models.Message{ID: uuid.NewString(), SenderID: b.ID, ReceiverID: a.ID, Content: "two", Timestamp: base.Add(time.Second), Status: models.DeliverySent}
	req.NoError(store.Save(ctx, first))
	req.NoError(store.Save(ctx, second))
	req.NoError(store.Save(ctx, first)) // same id: ignored

	msgs, err := store.ListConversation(ctx, b.ID, a.ID)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("one", msgs[0].Content)
	req.True(msgs[0].Timestamp.Equal(base))

	latest, err := store.LatestSent(ctx, a.ID)
	req.NoError(err)
	req.Len(latest, 1)
	req.Equal(first.ID, latest[0].ID)

	updated, err := store.UpdateStatus(ctx, second.ID, models.DeliveryRead)
	req.NoError(err)
	req.Equal(models.DeliveryRead, updated.Status)
}
