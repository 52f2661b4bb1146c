//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_publisher.go -package=mocks

// Package realtime is the pub/sub side of the system: channel naming,
// the broker clients, and the fan-out wrapper services publish through.
package realtime

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Event types carried in the envelope's "type" field.
const (
	EventMessageSent          = "message_sent"
	EventMessageReceived      = "message_received"
	EventMessageStatusUpdated = "message_status_updated"
	EventUserStatusChanged    = "user_status_changed"
	EventCallSignal           = "call_signal"
)

// Event is the envelope every subscriber receives.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher is a broker's publish endpoint. One call is one attempt:
// implementations do not retry or queue, and wrap every failure in
// apperr.ErrPublishUnavailable.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// Delivery is the outcome of one notification.
type Delivery struct {
	Channel string `json:"channel"`
	Err     error  `json:"-"`
}

func (d Delivery) Delivered() bool {
	return d.Err == nil
}

// Deliveries is the set of notifications one operation fanned out.
type Deliveries []Delivery

// AllDelivered reports whether every notification reached the broker.
func (ds Deliveries) AllDelivered() bool {
	for _, d := range ds {
		if !d.Delivered() {
			return false
		}
	}
	return true
}

// Err joins the failures, or returns nil.
func (ds Deliveries) Err() error {
	var errs []error
	for _, d := range ds {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errors.Join(errs...)
}

// Fanout is what services publish through. It turns a Publisher error
// into a Delivery the caller must look at, and logs it once here.
type Fanout struct {
	pub    Publisher
	logger *zap.Logger
}

func NewFanout(pub Publisher, logger *zap.Logger) *Fanout {
	return &Fanout{pub: pub, logger: logger}
}

// Notify publishes event on channel, once.
func (f *Fanout) Notify(ctx context.Context, channel string, event Event) Delivery {
	if err := f.pub.Publish(ctx, channel, event); err != nil {
		f.logger.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.String("event", event.Type),
			zap.Error(err),
		)
		return Delivery{Channel: channel, Err: err}
	}
	return Delivery{Channel: channel}
}
