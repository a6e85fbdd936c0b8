package model

import "time"

const (
	TableAccount        = "vnpy_account"
	TableAccountHistory = "vnpy_account_history"
)

// Account is the current balance of one account on one gateway.
type Account struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GatewayName    string    `gorm:"column:gateway_name;size:50;not null;uniqueIndex:gw_account_unique" json:"gateway_name"`
	AccountID      string    `gorm:"column:accountid;size:50;not null;uniqueIndex:gw_account_unique" json:"accountid"`
	Balance        float64   `json:"balance"`
	Frozen         float64   `json:"frozen"`
	LastUpdateTime time.Time `gorm:"column:last_update_time" json:"last_update_time"`
}

func (Account) TableName() string {
	return TableAccount
}

func (a *Account) Kind() Kind { return KindAccount }

func (a *Account) IdentityValues() []string {
	return []string{a.GatewayName, a.AccountID}
}

func (a *Account) AuditValues() []float64 {
	return []float64{a.Balance, a.Frozen}
}

func (a *Account) LastUpdated() time.Time { return a.LastUpdateTime }

func (a *Account) SetLastUpdated(t time.Time) { a.LastUpdateTime = t }

func (a *Account) Validate() error {
	if err := requireIdentity(KindAccount, MustSpecFor(KindAccount).IdentityColumns, a.IdentityValues()); err != nil {
		return err
	}
	return requireFinite(KindAccount, a.IdentityValues(), map[string]float64{
		"balance": a.Balance,
		"frozen":  a.Frozen,
	})
}

func (a *Account) AuditRecord(createdAt time.Time) any {
	return &AccountHistory{
		GatewayName: a.GatewayName,
		AccountID:   a.AccountID,
		Balance:     a.Balance,
		Frozen:      a.Frozen,
		CreatedAt:   createdAt,
	}
}

// AccountHistory is an append-only copy of an Account taken when its balance
// or frozen amount changed.
type AccountHistory struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GatewayName string    `gorm:"column:gateway_name;size:50;not null;index:idx_account_history_identity" json:"gateway_name"`
	AccountID   string    `gorm:"column:accountid;size:50;not null;index:idx_account_history_identity" json:"accountid"`
	Balance     float64   `json:"balance"`
	Frozen      float64   `json:"frozen"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (AccountHistory) TableName() string {
	return TableAccountHistory
}
