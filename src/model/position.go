package model

import "time"

const (
	TablePosition        = "vnpy_position"
	TablePositionHistory = "vnpy_position_history"
)

// Position is the current holding of one instrument on one gateway. Direction
// is an attribute: long and short holdings of the same symbol share one row.
type Position struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GatewayName    string    `gorm:"column:gateway_name;size:50;not null;uniqueIndex:position_gw_symbol_unique" json:"gateway_name"`
	Symbol         string    `gorm:"size:100;not null;uniqueIndex:position_gw_symbol_unique" json:"symbol"`
	Exchange       string    `gorm:"size:100" json:"exchange"`
	Direction      string    `gorm:"size:10" json:"direction"`
	Volume         float64   `json:"volume"`
	Frozen         float64   `json:"frozen"`
	Price          float64   `json:"price"`
	Pnl            float64   `json:"pnl"`
	YdVolume       float64   `gorm:"column:yd_volume" json:"yd_volume"`
	LastUpdateTime time.Time `gorm:"column:last_update_time" json:"last_update_time"`
}

func (Position) TableName() string {
	return TablePosition
}

func (p *Position) Kind() Kind { return KindPosition }

func (p *Position) IdentityValues() []string {
	return []string{p.GatewayName, p.Symbol}
}

func (p *Position) AuditValues() []float64 {
	return []float64{p.Volume, p.Price, p.Pnl}
}

func (p *Position) LastUpdated() time.Time { return p.LastUpdateTime }

func (p *Position) SetLastUpdated(t time.Time) { p.LastUpdateTime = t }

func (p *Position) Validate() error {
	if err := requireIdentity(KindPosition, MustSpecFor(KindPosition).IdentityColumns, p.IdentityValues()); err != nil {
		return err
	}
	return requireFinite(KindPosition, p.IdentityValues(), map[string]float64{
		"volume":    p.Volume,
		"frozen":    p.Frozen,
		"price":     p.Price,
		"pnl":       p.Pnl,
		"yd_volume": p.YdVolume,
	})
}

func (p *Position) AuditRecord(createdAt time.Time) any {
	return &PositionHistory{
		GatewayName: p.GatewayName,
		Symbol:      p.Symbol,
		Exchange:    p.Exchange,
		Direction:   p.Direction,
		Volume:      p.Volume,
		Frozen:      p.Frozen,
		Price:       p.Price,
		Pnl:         p.Pnl,
		YdVolume:    p.YdVolume,
		CreatedAt:   createdAt,
	}
}

// PositionHistory is an append-only copy of a Position taken when its volume,
// price or pnl changed.
type PositionHistory struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GatewayName string    `gorm:"column:gateway_name;size:50;not null;index:idx_position_history_identity" json:"gateway_name"`
	Symbol      string    `gorm:"size:100;not null;index:idx_position_history_identity" json:"symbol"`
	Exchange    string    `gorm:"size:100" json:"exchange"`
	Direction   string    `gorm:"size:10" json:"direction"`
	Volume      float64   `json:"volume"`
	Frozen      float64   `json:"frozen"`
	Price       float64   `json:"price"`
	Pnl         float64   `json:"pnl"`
	YdVolume    float64   `gorm:"column:yd_volume" json:"yd_volume"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (PositionHistory) TableName() string {
	return TablePositionHistory
}
