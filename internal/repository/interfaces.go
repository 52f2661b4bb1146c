package repository

import (
	"context"

	"github.com/lalith-99/pulsechat/internal/models"
)

// Every method takes a context because every implementation but the
// in-memory one does network I/O.
//
// Not-found convention: single-row lookups return nil, nil. The service
// layer turns that into apperr.ErrNotFound where it matters.
//
// There is one interface per record type and one implementation per
// backing technology (postgres, memory). The cached package decorates any
// of them with cache-aside reads. Services depend only on these interfaces.

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts u. The store's uniqueness constraint on username is
	// the authority: a duplicate returns apperr.ErrDuplicateUsername.
	Create(ctx context.Context, u models.User) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// ListAll returns every user ordered by display name, then username.
	// Returns empty slice (not nil) so JSON serializes to [] not null.
	ListAll(ctx context.Context) ([]models.User, error)

	// UpdateStatus sets the presence status and returns the updated row,
	// or nil, nil if no such user exists.
	UpdateStatus(ctx context.Context, id, status string) (*models.User, error)
}

// MessageRepository is the message store. Messages are append-only;
// Status is the only column UpdateStatus may change.
type MessageRepository interface {
	Save(ctx context.Context, m models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListConversation returns every message exchanged between a and b in
	// either direction, deduplicated by id, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]models.Message, error)

	// LatestSent returns, for each user senderID has sent to, the most
	// recent such message. Newest first.
	LatestSent(ctx context.Context, senderID string) ([]models.Message, error)

	// UpdateStatus sets the delivery status and returns the updated row,
	// or nil, nil if no such message exists.
	UpdateStatus(ctx context.Context, id, status string) (*models.Message, error)
}
