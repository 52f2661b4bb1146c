package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
)

// MessageStore keeps messages in insertion order.
type MessageStore struct {
	mu       sync.RWMutex
	messages []models.Message
	index    map[string]int // id -> position in messages
}

func NewMessageStore() *MessageStore {
	return &MessageStore{index: make(map[string]int)}
}

// Save is idempotent on id: re-saving a known id is a no-op.
func (s *MessageStore) Save(_ context.Context, m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[m.ID]; ok {
		return nil
	}
	m.IsSent = false
	s.index[m.ID] = len(s.messages)
	s.messages = append(s.messages, m)
	return nil
}

func (s *MessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	out := s.messages[i]
	return &out, nil
}

func (s *MessageStore) ListConversation(_ context.Context, a, b string) ([]models.Message, error) {
	s.mu.RLock()
	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()

	return repository.OrderMessages(out), nil
}

func (s *MessageStore) LatestSent(_ context.Context, senderID string) ([]models.Message, error) {
	s.mu.RLock()
	sent := make([]models.Message, 0)
	for _, m := range s.messages {
		if m.SenderID == senderID {
			sent = append(sent, m)
		}
	}
	s.mu.RUnlock()

	return repository.LatestPerReceiver(sent), nil
}

func (s *MessageStore) UpdateStatus(_ context.Context, id, status string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	s.messages[i].Status = status
	out := s.messages[i]
	return &out, nil
}
