package service

import (
	"context"
	"fmt"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"go.uber.org/zap"
)

// CallRelay forwards WebRTC signaling between the two parties of a call.
// Nothing is stored; a signal that fails to publish is gone.
type CallRelay struct {
	fanout *realtime.Fanout
	logger *zap.Logger
}

func NewCallRelay(fanout *realtime.Fanout, logger *zap.Logger) *CallRelay {
	return &CallRelay{fanout: fanout, logger: logger}
}

// Relay sends sig to whichever party currentUserID is not. Callers outside
// the call get ErrForbidden and nothing is published.
func (r *CallRelay) Relay(ctx context.Context, currentUserID string, sig models.CallSignal) (realtime.Delivery, error) {
	if currentUserID == "" || (currentUserID != sig.CallerID && currentUserID != sig.CalleeID) {
		return realtime.Delivery{}, fmt.Errorf("not a party to call %q: %w", sig.CallID, apperr.ErrForbidden)
	}
	if err := validateSignal(sig); err != nil {
		return realtime.Delivery{}, err
	}

	recipient := sig.CalleeID
	if currentUserID == sig.CalleeID {
		recipient = sig.CallerID
	}

	return r.fanout.Notify(ctx, realtime.UserChannel(recipient), realtime.Event{
		Type: realtime.EventCallSignal,
		Data: sig,
	}), nil
}

func validateSignal(sig models.CallSignal) error {
	switch {
	case sig.CallID == "":
		return fmt.Errorf("call_id is required: %w", apperr.ErrInvalidInput)
	case sig.CallerID == sig.CalleeID:
		return fmt.Errorf("caller and callee must differ: %w", apperr.ErrInvalidInput)
	}

	switch sig.CallType {
	case models.CallAudio, models.CallVideo:
	default:
		return fmt.Errorf("call_type %q: %w", sig.CallType, apperr.ErrInvalidInput)
	}

	switch sig.SignalType {
	case models.SignalOffer, models.SignalAnswer, models.SignalICECandidate, models.SignalHangup:
	default:
		return fmt.Errorf("signal_type %q: %w", sig.SignalType, apperr.ErrInvalidInput)
	}
	return nil
}
