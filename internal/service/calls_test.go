package service

import (
	"context"
	"testing"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func offer() models.CallSignal {
	return models.CallSignal{
		CallID:     "call-1",
		CallerID:   "u1",
		CalleeID:   "u2",
		CallType:   models.CallVideo,
		SignalType: models.SignalOffer,
		Payload:    map[string]any{"sdp": "v=0"},
	}
}

func TestCallRelay_ForwardsToOtherParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("caller to callee", func(t *testing.T) {
		req := require.New(t)
		sig := offer()
		f.pub.EXPECT().
			Publish(gomock.Any(), "user-u2", realtime.Event{Type: realtime.EventCallSignal, Data: sig}).
			Return(nil)

		delivery, err := f.calls.Relay(ctx, "u1", sig)
		req.NoError(err)
		req.Equal("user-u2", delivery.Channel)
		req.True(delivery.Delivered())
	})

	t.Run("callee answers caller", func(t *testing.T) {
		req := require.New(t)
		sig := offer()
		sig.SignalType = models.SignalAnswer
		f.pub.EXPECT().
			Publish(gomock.Any(), "user-u1", realtime.Event{Type: realtime.EventCallSignal, Data: sig}).
			Return(nil)

		delivery, err := f.calls.Relay(ctx, "u2", sig)
		req.NoError(err)
		req.Equal("user-u1", delivery.Channel)
	})

	t.Run("broker failure is reported", func(t *testing.T) {
		req := require.New(t)
		sig := offer()
		sig.SignalType = models.SignalHangup
		f.pub.EXPECT().Publish(gomock.Any(), "user-u2", gomock.Any()).Return(errPublish)

		delivery, err := f.calls.Relay(ctx, "u1", sig)
		req.NoError(err)
		req.ErrorIs(delivery.Err, apperr.ErrPublishUnavailable)
	})
}

func TestCallRelay_ForbiddenPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := f.calls.Relay(context.Background(), "u3", offer())
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.calls.Relay(context.Background(), "", offer())
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCallRelay_Validation(t *testing.T) {
	f := newFixture(t)
	f.pub.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	tests := []struct {
		name   string
		mutate func(*models.CallSignal)
	}{
		{"unknown call type", func(s *models.CallSignal) { s.CallType = "fax" }},
		{"unknown signal type", func(s *models.CallSignal) { s.SignalType = "ring" }},
		{"missing call id", func(s *models.CallSignal) { s.CallID = "" }},
		{"self call", func(s *models.CallSignal) { s.CalleeID = "u1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := offer()
			tt.mutate(&sig)
			_, err := f.calls.Relay(context.Background(), "u1", sig)
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}
