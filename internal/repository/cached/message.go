package cached

import (
	"context"
	"encoding/json"

	"github.com/lalith-99/pulsechat/internal/cache"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MessageStore is the cache-aside message store. A conversation is cached
// as a Redis list under cache.ConversationKey, which is the same for both
// directions of the pair; reads and appends therefore always meet.
type MessageStore struct {
	store  repository.MessageRepository
	cache  Cache
	logger *zap.Logger
}

func NewMessageStore(store repository.MessageRepository, c Cache, logger *zap.Logger) *MessageStore {
	return &MessageStore{store: store, cache: c, logger: logger}
}

// Save persists m, then appends it to the conversation entry if one is
// cached. An absent entry stays absent and the next read fills it from
// the store, history included. Either way the pair's version moves, which
// voids any fill that read the store before m was saved.
func (s *MessageStore) Save(ctx context.Context, m models.Message) error {
	if err := s.store.Save(ctx, m); err != nil {
		return err
	}

	m.IsSent = false
	key := cache.ConversationKey(m.SenderID, m.ReceiverID)
	versionKey := cache.ConversationVersionKey(m.SenderID, m.ReceiverID)
	if _, err := s.cache.AppendList(ctx, key, versionKey, m); err != nil {
		// The appended entry would now be missing m. Drop it instead.
		s.logger.Warn("conversation cache append failed", zap.String("key", key), zap.Error(err))
		s.dropList(ctx, key, versionKey)
	}
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return s.store.GetByID(ctx, id)
}

// ListConversation serves from the cached list when present. Both paths
// go through OrderMessages, so duplicates from racing appends never leak.
func (s *MessageStore) ListConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	key := cache.ConversationKey(a, b)
	versionKey := cache.ConversationVersionKey(a, b)

	if msgs, ok := s.readList(ctx, key, versionKey); ok {
		return repository.OrderMessages(msgs), nil
	}

	// The version is taken before the store read. A save that lands after
	// it moves the version and the fill below is skipped.
	version, err := s.cache.ListVersion(ctx, versionKey)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("conversation cache version read failed", zap.String("key", versionKey), zap.Error(err))
	}

	msgs, err := s.store.ListConversation(ctx, a, b)
	if err != nil {
		return nil, err
	}
	msgs = repository.OrderMessages(msgs)
	if !cacheable {
		return msgs, nil
	}

	values := lo.Map(msgs, func(m models.Message, _ int) any { return m })
	filled, err := s.cache.FillList(ctx, key, versionKey, version, values)
	if err != nil {
		s.logger.Warn("conversation cache fill failed", zap.String("key", key), zap.Error(err))
	} else if !filled {
		s.logger.Debug("conversation cache fill skipped, concurrent write", zap.String("key", key))
	}
	return msgs, nil
}

// LatestSent is always computed by the store.
func (s *MessageStore) LatestSent(ctx context.Context, senderID string) ([]models.Message, error) {
	return s.store.LatestSent(ctx, senderID)
}

// UpdateStatus changes a field inside a cached list item, so the whole
// conversation entry is dropped rather than patched.
func (s *MessageStore) UpdateStatus(ctx context.Context, id, status string) (*models.Message, error) {
	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil || updated == nil {
		return updated, err
	}
	s.dropList(ctx,
		cache.ConversationKey(updated.SenderID, updated.ReceiverID),
		cache.ConversationVersionKey(updated.SenderID, updated.ReceiverID),
	)
	return updated, nil
}

func (s *MessageStore) readList(ctx context.Context, key, versionKey string) ([]models.Message, bool) {
	raw, found, err := s.cache.GetList(ctx, key)
	if err != nil {
		s.logger.Warn("conversation cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	msgs := make([]models.Message, 0, len(raw))
	for _, item := range raw {
		var m models.Message
		if err := json.Unmarshal(item, &m); err != nil {
			s.logger.Warn("corrupt conversation cache entry", zap.String("key", key), zap.Error(err))
			s.dropList(ctx, key, versionKey)
			return nil, false
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

func (s *MessageStore) dropList(ctx context.Context, key, versionKey string) {
	if err := s.cache.DropList(ctx, key, versionKey); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
