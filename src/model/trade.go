package model

import "time"

const TableTrade = "vnpy_tradedata"

// Trade is one execution. Rows are written once per order id and never updated.
type Trade struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GatewayName string    `gorm:"column:gateway_name;size:50;not null" json:"gateway_name"`
	Symbol      string    `gorm:"size:100;not null" json:"symbol"`
	Exchange    string    `gorm:"size:50" json:"exchange"`
	OrderID     string    `gorm:"column:orderid;size:100;not null;uniqueIndex:orderid_unique" json:"orderid"`
	TradeID     string    `gorm:"column:tradeid;size:100" json:"tradeid"`
	Direction   string    `gorm:"size:10" json:"direction"`
	Offset      string    `gorm:"column:offset;size:20" json:"offset"`
	Price       float64   `json:"price"`
	Volume      float64   `json:"volume"`
	Datetime    time.Time `gorm:"column:datetime" json:"datetime"`
}

func (Trade) TableName() string {
	return TableTrade
}

func (t *Trade) Kind() Kind { return KindTrade }

// IdentityValues are ordered like the trade KeySpec's IdentityColumns.
func (t *Trade) IdentityValues() []string {
	return []string{t.OrderID}
}

func (t *Trade) Validate() error {
	if err := requireIdentity(KindTrade, MustSpecFor(KindTrade).IdentityColumns, t.IdentityValues()); err != nil {
		return err
	}
	if err := requireIdentity(KindTrade, []string{"gateway_name", "symbol"}, []string{t.GatewayName, t.Symbol}); err != nil {
		return err
	}
	return requireFinite(KindTrade, []string{t.OrderID}, map[string]float64{
		"price":  t.Price,
		"volume": t.Volume,
	})
}
