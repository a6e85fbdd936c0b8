package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"snapshotengine/src/model"
)

func required(kind model.Kind, name string, v decimal.NullDecimal) (float64, error) {
	if !v.Valid {
		return 0, fmt.Errorf("%w: %s %s is missing", model.ErrMalformedPayload, kind, name)
	}
	return v.Decimal.InexactFloat64(), nil
}

func optional(v decimal.NullDecimal) float64 {
	if !v.Valid {
		return 0
	}
	return v.Decimal.InexactFloat64()
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

func projectAccount(s AccountSnapshot) (*model.Account, error) {
	balance, err := required(model.KindAccount, "balance", s.Balance)
	if err != nil {
		return nil, err
	}

	a := &model.Account{
		GatewayName: clean(s.GatewayName),
		AccountID:   clean(s.AccountID),
		Balance:     balance,
		Frozen:      optional(s.Frozen),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func projectPosition(s PositionSnapshot) (*model.Position, error) {
	direction, ok := model.NormalizeDirection(s.Direction)
	if !ok {
		return nil, fmt.Errorf("%w: position direction %q", model.ErrMalformedPayload, s.Direction)
	}

	p := &model.Position{
		GatewayName: clean(s.GatewayName),
		Symbol:      clean(s.Symbol),
		Exchange:    clean(s.Exchange),
		Direction:   direction,
		Frozen:      optional(s.Frozen),
		YdVolume:    optional(s.YdVolume),
	}

	var err error
	if p.Volume, err = required(model.KindPosition, "volume", s.Volume); err != nil {
		return nil, err
	}
	if p.Price, err = required(model.KindPosition, "price", s.Price); err != nil {
		return nil, err
	}
	if p.Pnl, err = required(model.KindPosition, "pnl", s.Pnl); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// projectGreeks returns (nil, nil) for ticks that carry no greeks: no
// underlying price or a zero implied volatility.
func projectGreeks(s TickUpdate) (*model.Greeks, error) {
	if !s.UnderlyingPrice.Valid || s.UnderlyingPrice.Decimal.IsZero() {
		return nil, nil
	}
	if !s.ImpliedVolatility.Valid || s.ImpliedVolatility.Decimal.IsZero() {
		return nil, nil
	}

	g := &model.Greeks{
		GatewayName:       clean(s.GatewayName),
		Symbol:            clean(s.Symbol),
		Exchange:          clean(s.Exchange),
		ImpliedVolatility: s.ImpliedVolatility.Decimal.InexactFloat64(),
		Delta:             optional(s.Delta),
		Gamma:             optional(s.Gamma),
		Vega:              optional(s.Vega),
		Theta:             optional(s.Theta),
		OptionPrice:       optional(s.OptionPrice),
		UnderlyingPrice:   s.UnderlyingPrice.Decimal.InexactFloat64(),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func projectTrade(s TradeExecuted) (*model.Trade, error) {
	direction, ok := model.NormalizeDirection(s.Direction)
	if !ok {
		return nil, fmt.Errorf("%w: trade direction %q", model.ErrMalformedPayload, s.Direction)
	}
	offset, ok := model.NormalizeOffset(s.Offset)
	if !ok {
		return nil, fmt.Errorf("%w: trade offset %q", model.ErrMalformedPayload, s.Offset)
	}

	t := &model.Trade{
		GatewayName: clean(s.GatewayName),
		Symbol:      clean(s.Symbol),
		Exchange:    clean(s.Exchange),
		OrderID:     clean(s.OrderID),
		TradeID:     clean(s.TradeID),
		Direction:   direction,
		Offset:      offset,
	}
	if s.Datetime != nil {
		t.Datetime = s.Datetime.UTC()
	}

	var err error
	if t.Price, err = required(model.KindTrade, "price", s.Price); err != nil {
		return nil, err
	}
	if t.Volume, err = required(model.KindTrade, "volume", s.Volume); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
