package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/lalith-99/pulsechat/internal/repository"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SendResult is a persisted message plus how its notifications went.
// Message is the sender's view (IsSent true).
type SendResult struct {
	Message    models.Message
	Deliveries realtime.Deliveries
}

// StatusUpdate is the payload of message_status_updated.
type StatusUpdate struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// ContactList is the sidebar: people the user has written to, most recent
// first, then everybody else.
type ContactList struct {
	Recent []models.ConversationSummary `json:"recent"`
	Others []models.Profile             `json:"others"`
}

type MessageService struct {
	messages  repository.MessageRepository
	users     repository.UserRepository
	directory Directory
	fanout    *realtime.Fanout
	logger    *zap.Logger
	now       func() time.Time
}

func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	directory Directory,
	fanout *realtime.Fanout,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		directory: directory,
		fanout:    fanout,
		logger:    logger,
		now:       time.Now,
	}
}

// Send persists a new message, then notifies the sender's channel
// (message_sent) and the receiver's channel (message_received). Each copy
// carries IsSent from its recipient's point of view. A failed notification
// shows up in the result; the message stays stored.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*SendResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content is required: %w", apperr.ErrInvalidInput)
	}
	if receiverID == "" || receiverID == senderID {
		return nil, fmt.Errorf("receiver must be another user: %w", apperr.ErrInvalidInput)
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	if receiver == nil {
		return nil, fmt.Errorf("receiver %s: %w", receiverID, apperr.ErrNotFound)
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		// Postgres keeps microseconds. Truncating here keeps the cached
		// copy and the stored row identical.
		Timestamp: s.now().UTC().Truncate(time.Microsecond),
		Status:    models.DeliverySent,
	}
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	echo := msg.ForViewer(senderID)
	deliveries := realtime.Deliveries{
		s.fanout.Notify(ctx, realtime.UserChannel(senderID), realtime.Event{
			Type: realtime.EventMessageSent,
			Data: echo,
		}),
		s.fanout.Notify(ctx, realtime.UserChannel(receiverID), realtime.Event{
			Type: realtime.EventMessageReceived,
			Data: msg.ForViewer(receiverID),
		}),
	}
	return &SendResult{Message: echo, Deliveries: deliveries}, nil
}

// History returns the conversation between userID and contactID, oldest
// first, with IsSent relative to userID. It never changes delivery status.
func (s *MessageService) History(ctx context.Context, userID, contactID string) ([]models.Message, error) {
	msgs, err := s.messages.ListConversation(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return lo.Map(msgs, func(m models.Message, _ int) models.Message { return m.ForViewer(userID) }), nil
}

// UpdateStatus lets the receiver of a message mark it delivered or read.
// The sender is told through message_status_updated.
func (s *MessageService) UpdateStatus(ctx context.Context, userID, messageID, status string) (*models.Message, realtime.Delivery, error) {
	if !models.ValidDeliveryStatus(status) {
		return nil, realtime.Delivery{}, fmt.Errorf("status %q: %w", status, apperr.ErrInvalidInput)
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, realtime.Delivery{}, fmt.Errorf("update status: %w", err)
	}
	if msg == nil {
		return nil, realtime.Delivery{}, fmt.Errorf("message %s: %w", messageID, apperr.ErrNotFound)
	}
	if msg.ReceiverID != userID {
		return nil, realtime.Delivery{}, fmt.Errorf("message %s: only the receiver may set its status: %w", messageID, apperr.ErrForbidden)
	}

	updated, err := s.messages.UpdateStatus(ctx, messageID, status)
	if err != nil {
		return nil, realtime.Delivery{}, fmt.Errorf("update status: %w", err)
	}
	if updated == nil {
		return nil, realtime.Delivery{}, fmt.Errorf("message %s: %w", messageID, apperr.ErrNotFound)
	}

	delivery := s.fanout.Notify(ctx, realtime.UserChannel(updated.SenderID), realtime.Event{
		Type: realtime.EventMessageStatusUpdated,
		Data: StatusUpdate{MessageID: updated.ID, Status: updated.Status},
	})
	viewed := updated.ForViewer(userID)
	return &viewed, delivery, nil
}

// Contacts builds the contact list for userID.
func (s *MessageService) Contacts(ctx context.Context, userID string) (*ContactList, error) {
	latest, err := s.messages.LatestSent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	profiles, err := s.directory.Directory(ctx)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	byID := lo.KeyBy(profiles, func(p models.Profile) string { return p.ID })

	recent := make([]models.ConversationSummary, 0, len(latest))
	seen := map[string]bool{userID: true}
	for _, m := range latest {
		contact, ok := byID[m.ReceiverID]
		if !ok {
			// Directory entries can trail the store by up to the cache TTL.
			u, err := s.users.GetByID(ctx, m.ReceiverID)
			if err != nil {
				return nil, fmt.Errorf("contacts: %w", err)
			}
			if u == nil {
				continue
			}
			contact = u.Profile()
		}
		seen[contact.ID] = true
		recent = append(recent, models.ConversationSummary{
			Contact:         contact,
			LastMessage:     m.Content,
			LastMessageTime: m.Timestamp,
		})
	}

	others := lo.Filter(profiles, func(p models.Profile, _ int) bool { return !seen[p.ID] })
	return &ContactList{Recent: recent, Others: others}, nil
}
