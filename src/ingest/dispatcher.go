package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"snapshotengine/src/model"
)

// StateStore is the part of repository.StateStore used by the dispatcher.
type StateStore interface {
	UpsertAccounts(ctx context.Context, accounts []*model.Account) ([]model.Delta, error)
	UpsertPositions(ctx context.Context, positions []*model.Position) ([]model.Delta, error)
	UpsertGreeks(ctx context.Context, greeks *model.Greeks) (model.Delta, error)
}

// TradeLedger is the part of repository.TradeLedger used by the dispatcher.
type TradeLedger interface {
	RecordTrade(ctx context.Context, trade *model.Trade) error
}

// DroppedError reports the malformed members of a batch event. Applied counts
// the members that were stored anyway.
type DroppedError struct {
	Applied int
	Err     error
}

func (e *DroppedError) Error() string {
	return fmt.Sprintf("%d applied, dropped: %v", e.Applied, e.Err)
}

func (e *DroppedError) Unwrap() error { return e.Err }

func dropped(applied int, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &DroppedError{Applied: applied, Err: errors.Join(errs...)}
}

// Dispatcher projects typed event payloads onto state records and hands them
// to the store. Handlers are independent of each other.
type Dispatcher struct {
	Log    *logrus.Entry
	store  StateStore
	ledger TradeLedger
	hooks  []PositionHook
}

// NewDispatcher wires a dispatcher. Position hooks run in order after every
// committed position batch.
func NewDispatcher(log *logrus.Entry, store StateStore, ledger TradeLedger, hooks ...PositionHook) *Dispatcher {
	if log == nil {
		log = logrus.WithField("component", "Dispatcher")
	}
	return &Dispatcher{Log: log, store: store, ledger: ledger, hooks: hooks}
}

// Dispatch routes evt to its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) error {
	switch evt.Type {
	case EventAccount:
		return d.OnAccountUpdate(ctx, evt.Accounts...)
	case EventPosition:
		return d.OnPositionUpdate(ctx, evt.Positions...)
	case EventTrade:
		if evt.Trade == nil {
			return fmt.Errorf("%w: trade event without payload", model.ErrMalformedPayload)
		}
		return d.OnTradeExecuted(ctx, *evt.Trade)
	case EventTick:
		if evt.Tick == nil {
			return fmt.Errorf("%w: tick event without payload", model.ErrMalformedPayload)
		}
		return d.OnGreeksUpdate(ctx, *evt.Tick)
	default:
		return fmt.Errorf("%w: unknown event type %q", model.ErrMalformedPayload, evt.Type)
	}
}

// OnAccountUpdate stores one or more account snapshots as one batch.
// Malformed snapshots are dropped and reported; the rest are applied.
func (d *Dispatcher) OnAccountUpdate(ctx context.Context, snapshots ...AccountSnapshot) error {
	accounts := make([]*model.Account, 0, len(snapshots))
	var malformed []error
	for _, s := range snapshots {
		a, err := projectAccount(s)
		if err != nil {
			d.Log.WithError(err).
				WithField("gateway_name", s.GatewayName).
				WithField("accountid", s.AccountID).
				Warn("Dropping malformed account snapshot")
			malformed = append(malformed, err)
			continue
		}
		accounts = append(accounts, a)
	}

	if len(accounts) > 0 {
		if _, err := d.store.UpsertAccounts(ctx, accounts); err != nil {
			return err
		}
	}
	return dropped(len(accounts), malformed)
}

// OnPositionUpdate stores one or more position snapshots as one batch and then
// runs the position hooks for every stored position.
func (d *Dispatcher) OnPositionUpdate(ctx context.Context, snapshots ...PositionSnapshot) error {
	positions := make([]*model.Position, 0, len(snapshots))
	var malformed []error
	for _, s := range snapshots {
		p, err := projectPosition(s)
		if err != nil {
			d.Log.WithError(err).
				WithField("gateway_name", s.GatewayName).
				WithField("symbol", s.Symbol).
				Warn("Dropping malformed position snapshot")
			malformed = append(malformed, err)
			continue
		}
		positions = append(positions, p)
	}

	if len(positions) == 0 {
		return dropped(0, malformed)
	}

	if _, err := d.store.UpsertPositions(ctx, positions); err != nil {
		return err
	}

	errs := []error{dropped(len(positions), malformed)}
	for _, hook := range d.hooks {
		if err := hook.AfterPositions(ctx, positions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnGreeksUpdate stores the greeks carried by an option tick. Ticks without
// an underlying price or with zero implied volatility are ignored.
func (d *Dispatcher) OnGreeksUpdate(ctx context.Context, tick TickUpdate) error {
	g, err := projectGreeks(tick)
	if err != nil {
		d.Log.WithError(err).
			WithField("symbol", tick.Symbol).
			Warn("Dropping malformed tick")
		return err
	}
	if g == nil {
		return nil
	}

	_, err = d.store.UpsertGreeks(ctx, g)
	return err
}

// OnTradeExecuted records a trade. A duplicate order id is reported as
// model.ErrDuplicateTrade and the stored trade stays as it was.
func (d *Dispatcher) OnTradeExecuted(ctx context.Context, trade TradeExecuted) error {
	t, err := projectTrade(trade)
	if err != nil {
		d.Log.WithError(err).
			WithField("orderid", trade.OrderID).
			Warn("Dropping malformed trade")
		return err
	}

	return d.ledger.RecordTrade(ctx, t)
}
