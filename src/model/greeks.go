package model

import "time"

const TableGreeks = "vnpy_greeks"

// Greeks holds the latest option risk sensitivities of one instrument. It is
// upserted like the other state records but has no history table.
type Greeks struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	GatewayName       string    `gorm:"column:gateway_name;size:50;not null;uniqueIndex:greeks_gw_symbol_unique" json:"gateway_name"`
	Symbol            string    `gorm:"size:100;not null;uniqueIndex:greeks_gw_symbol_unique" json:"symbol"`
	Exchange          string    `gorm:"size:100" json:"exchange"`
	ImpliedVolatility float64   `gorm:"column:implied_volatility" json:"implied_volatility"`
	Delta             float64   `json:"delta"`
	Gamma             float64   `json:"gamma"`
	Vega              float64   `json:"vega"`
	Theta             float64   `json:"theta"`
	OptionPrice       float64   `gorm:"column:option_price" json:"option_price"`
	UnderlyingPrice   float64   `gorm:"column:underlying_price" json:"underlying_price"`
	LastUpdateTime    time.Time `gorm:"column:last_update_time" json:"last_update_time"`
}

func (Greeks) TableName() string {
	return TableGreeks
}

func (g *Greeks) Kind() Kind { return KindGreeks }

func (g *Greeks) IdentityValues() []string {
	return []string{g.GatewayName, g.Symbol}
}

func (g *Greeks) AuditValues() []float64 { return nil }

func (g *Greeks) LastUpdated() time.Time { return g.LastUpdateTime }

func (g *Greeks) SetLastUpdated(t time.Time) { g.LastUpdateTime = t }

func (g *Greeks) Validate() error {
	if err := requireIdentity(KindGreeks, MustSpecFor(KindGreeks).IdentityColumns, g.IdentityValues()); err != nil {
		return err
	}
	return requireFinite(KindGreeks, g.IdentityValues(), map[string]float64{
		"implied_volatility": g.ImpliedVolatility,
		"delta":              g.Delta,
		"gamma":              g.Gamma,
		"vega":               g.Vega,
		"theta":              g.Theta,
		"option_price":       g.OptionPrice,
		"underlying_price":   g.UnderlyingPrice,
	})
}

func (g *Greeks) AuditRecord(time.Time) any { return nil }
