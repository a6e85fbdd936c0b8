package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapshotengine/src/model"
)

// SubscriptionRequest asks the trading engine to subscribe an instrument on
// its market data feed.
type SubscriptionRequest struct {
	RequestID string `json:"request_id"`
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange"`
	Gateway   string `json:"gateway_name"`
}

// VtSymbol is the engine-wide instrument key, "symbol.exchange".
func (r SubscriptionRequest) VtSymbol() string {
	return r.Symbol + "." + r.Exchange
}

// Subscriber delivers subscription requests to the trading engine.
type Subscriber interface {
	Subscribe(ctx context.Context, req SubscriptionRequest) error
}

// PositionHook runs after a position batch has been committed.
type PositionHook interface {
	AfterPositions(ctx context.Context, positions []*model.Position) error
}

// ResubscribeHook requests market data for every persisted position. Failures
// are reported and never retried here.
type ResubscribeHook struct {
	Log        *logrus.Entry
	subscriber Subscriber
}

// NewResubscribeHook creates the re-subscription hook.
func NewResubscribeHook(log *logrus.Entry, subscriber Subscriber) *ResubscribeHook {
	if log == nil {
		log = logrus.WithField("component", "ResubscribeHook")
	}
	return &ResubscribeHook{Log: log, subscriber: subscriber}
}

func (h *ResubscribeHook) AfterPositions(ctx context.Context, positions []*model.Position) error {
	var errs []error
	for _, p := range positions {
		req := SubscriptionRequest{
			RequestID: uuid.NewString(),
			Symbol:    p.Symbol,
			Exchange:  p.Exchange,
			Gateway:   p.GatewayName,
		}

		if err := h.subscriber.Subscribe(ctx, req); err != nil {
			h.Log.WithError(err).
				WithField("vt_symbol", req.VtSymbol()).
				WithField("request_id", req.RequestID).
				Warn("Market data subscription failed")
			errs = append(errs, fmt.Errorf("%w: subscribe %s: %w", model.ErrSideEffectFailure, req.VtSymbol(), err))
			continue
		}

		h.Log.WithField("vt_symbol", req.VtSymbol()).Debug("Market data subscription requested")
	}
	return errors.Join(errs...)
}
