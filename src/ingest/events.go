package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"snapshotengine/src/model"
)

// EventType uses the event names of the trading engine's event bus.
type EventType string

const (
	EventAccount  EventType = "eAccount."
	EventPosition EventType = "ePosition."
	EventTrade    EventType = "eTrade."
	EventTick     EventType = "eTick."
)

// AccountSnapshot is the account payload published by a gateway.
type AccountSnapshot struct {
	GatewayName string              `json:"gateway_name"`
	AccountID   string              `json:"accountid"`
	Balance     decimal.NullDecimal `json:"balance"`
	Frozen      decimal.NullDecimal `json:"frozen"`
}

// PositionSnapshot is the position payload published by a gateway.
type PositionSnapshot struct {
	GatewayName string              `json:"gateway_name"`
	Symbol      string              `json:"symbol"`
	Exchange    string              `json:"exchange"`
	Direction   string              `json:"direction"`
	Volume      decimal.NullDecimal `json:"volume"`
	Frozen      decimal.NullDecimal `json:"frozen"`
	Price       decimal.NullDecimal `json:"price"`
	Pnl         decimal.NullDecimal `json:"pnl"`
	YdVolume    decimal.NullDecimal `json:"yd_volume"`
}

// TradeExecuted is one fill reported by a gateway.
type TradeExecuted struct {
	GatewayName string              `json:"gateway_name"`
	Symbol      string              `json:"symbol"`
	Exchange    string              `json:"exchange"`
	OrderID     string              `json:"orderid"`
	TradeID     string              `json:"tradeid"`
	Direction   string              `json:"direction"`
	Offset      string              `json:"offset"`
	Price       decimal.NullDecimal `json:"price"`
	Volume      decimal.NullDecimal `json:"volume"`
	Datetime    *time.Time          `json:"datetime,omitempty"`
}

// TickUpdate carries the option greeks part of a market data tick.
type TickUpdate struct {
	GatewayName       string              `json:"gateway_name"`
	Symbol            string              `json:"symbol"`
	Exchange          string              `json:"exchange"`
	ImpliedVolatility decimal.NullDecimal `json:"implied_volatility"`
	Delta             decimal.NullDecimal `json:"delta"`
	Gamma             decimal.NullDecimal `json:"gamma"`
	Vega              decimal.NullDecimal `json:"vega"`
	Theta             decimal.NullDecimal `json:"theta"`
	OptionPrice       decimal.NullDecimal `json:"option_price"`
	UnderlyingPrice   decimal.NullDecimal `json:"underlying_price"`
}

// Event is a tagged variant; only the payload matching Type is set.
type Event struct {
	ID        string
	Type      EventType
	Accounts  []AccountSnapshot
	Positions []PositionSnapshot
	Trade     *TradeExecuted
	Tick      *TickUpdate
}

// Envelope is the wire form of an event: {"type": "ePosition.", "data": ...}.
// Account and position data may be one object or a list.
type Envelope struct {
	ID   string          `json:"id,omitempty"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope parses one wire message into an Event. Structural problems
// are reported as model.ErrMalformedPayload.
func DecodeEnvelope(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	if len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return Event{}, fmt.Errorf("%w: %s event without data", model.ErrMalformedPayload, env.Type)
	}

	evt := Event{ID: env.ID, Type: env.Type}
	var err error
	switch env.Type {
	case EventAccount:
		evt.Accounts, err = decodeOneOrMany[AccountSnapshot](env.Data)
	case EventPosition:
		evt.Positions, err = decodeOneOrMany[PositionSnapshot](env.Data)
	case EventTrade:
		evt.Trade = &TradeExecuted{}
		err = json.Unmarshal(env.Data, evt.Trade)
	case EventTick:
		evt.Tick = &TickUpdate{}
		err = json.Unmarshal(env.Data, evt.Tick)
	default:
		return Event{}, fmt.Errorf("%w: unknown event type %q", model.ErrMalformedPayload, env.Type)
	}
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedPayload, env.Type, err)
	}
	return evt, nil
}

func decodeOneOrMany[T any](data json.RawMessage) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
