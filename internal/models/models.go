package models

import (
	"time"
)

// Presence values the clients send. Status is free-form, these are just
// the two the login/logout flow uses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Delivery states of a message. DeliveryStatus is the only field of a
// Message that ever changes after it is created.
const (
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryRead      = "read"
)

// ValidDeliveryStatus reports whether s is one of the delivery states.
func ValidDeliveryStatus(s string) bool {
	switch s {
	case DeliverySent, DeliveryDelivered, DeliveryRead:
		return true
	}
	return false
}

// User is a registered account.
//
// Why is PasswordHash serialized?
//   - The cache stores the full record so that login can be served from
//     Redis. Handlers never return a User directly; they return Profile.
//
// Why a pointer for Avatar?
//   - avatar is a nullable column. nil means "no avatar", which is not
//     the same as an empty string once it reaches the frontend.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"name"`
	Avatar       *string   `json:"avatar"`
	PasswordHash string    `json:"password_hash"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view of a User. Everything but the hash.
type Profile struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"name"`
	Avatar      *string `json:"avatar"`
	Status      string  `json:"status"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		Status:      u.Status,
	}
}

// Message is a single direct message between two users.
//
// IsSent is not stored. It is computed for whoever is looking at the
// message: true when the viewer is the sender. See ForViewer.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	IsSent     bool      `json:"is_sent"`
}

// ForViewer returns a copy of m with IsSent set relative to viewerID.
func (m Message) ForViewer(viewerID string) Message {
	m.IsSent = m.SenderID == viewerID
	return m
}

// ConversationSummary is one row of the contacts view: the latest message
// the user sent to a counterparty.
type ConversationSummary struct {
	Contact         Profile   `json:"contact"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// Call types and signal types accepted by the relay.
const (
	CallAudio = "audio"
	CallVideo = "video"

	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalICECandidate = "ice-candidate"
	SignalHangup       = "hangup"
)

// CallSignal is a WebRTC signaling envelope. The relay forwards it as-is;
// Payload (SDP, ICE candidate) is opaque to the server.
type CallSignal struct {
	CallID     string         `json:"call_id"`
	CallerID   string         `json:"caller_id"`
	CalleeID   string         `json:"callee_id"`
	CallType   string         `json:"call_type"`
	SignalType string         `json:"signal_type"`
	Payload    map[string]any `json:"payload"`
}
