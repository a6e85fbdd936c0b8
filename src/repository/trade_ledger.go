package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"snapshotengine/src/model"
	"snapshotengine/src/utils"
)

// TradeLedger is the append-only store of executions. A trade is written once
// per order id; later inserts with the same order id are rejected, never merged.
type TradeLedger struct {
	db        *gorm.DB
	now       func() time.Time
	precision string
}

// NewTradeLedger creates a trade ledger on top of db.
func NewTradeLedger(db *gorm.DB) *TradeLedger {
	logger.WithField("component", "TradeLedger").
		Info("Creating new TradeLedger")

	return &TradeLedger{
		db:        db,
		now:       time.Now,
		precision: "microsecond",
	}
}

// WithClock returns a copy of the ledger that reads the time from now.
func (l *TradeLedger) WithClock(now func() time.Time) *TradeLedger {
	cp := *l
	cp.now = now
	return &cp
}

// WithPrecision returns a copy of the ledger that truncates trade times to granularity.
func (l *TradeLedger) WithPrecision(granularity string) *TradeLedger {
	cp := *l
	cp.precision = granularity
	return &cp
}

// RecordTrade inserts one trade. It returns an error matching
// model.ErrDuplicateTrade when the order id is already recorded.
func (l *TradeLedger) RecordTrade(ctx context.Context, trade *model.Trade) error {
	_, err := l.RecordTrades(ctx, []*model.Trade{trade})
	return err
}

// RecordTrades inserts trades in one transaction with per-row duplicate
// isolation: duplicates are skipped and reported together, every other trade
// is kept. A storage failure rolls back the whole batch.
func (l *TradeLedger) RecordTrades(ctx context.Context, trades []*model.Trade) (int, error) {
	for _, trade := range trades {
		if err := trade.Validate(); err != nil {
			return 0, err
		}
	}

	spec := model.MustSpecFor(model.KindTrade)

	logger.WithFields(map[string]interface{}{
		"repo":  "TradeLedger",
		"op":    "RecordTrades",
		"table": spec.Table,
		"count": len(trades),
	}).Debug("Recording trades")

	var (
		inserted   int
		duplicates []error
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, duplicates = 0, nil
		for _, trade := range trades {
			if trade.Datetime.IsZero() {
				trade.Datetime = l.now()
			}
			trade.Datetime = utils.ResetTime(trade.Datetime, l.precision)

			res := tx.Omit("id").
				Clauses(clause.OnConflict{
					Columns:   toColumns(spec.IdentityColumns),
					DoNothing: true,
				}).
				Create(trade)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				duplicates = append(duplicates, fmt.Errorf("%w: orderid %s", model.ErrDuplicateTrade, trade.OrderID))
				continue
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeLedger",
			"op":    "RecordTrades",
			"count": len(trades),
		}).WithError(err).Error("Failed to record trades, batch rolled back")
		return 0, storageError("RecordTrades", err)
	}

	if len(duplicates) > 0 {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeLedger",
			"op":         "RecordTrades",
			"inserted":   inserted,
			"duplicates": len(duplicates),
		}).Warn("Duplicate trades discarded")
		return inserted, errors.Join(duplicates...)
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeLedger",
		"op":       "RecordTrades",
		"inserted": inserted,
	}).Info("Trades recorded successfully")

	return inserted, nil
}

// FindByOrderID fetches a trade by its order id. Returns (nil, nil) if not found.
func (l *TradeLedger) FindByOrderID(ctx context.Context, orderID string) (*model.Trade, error) {
	spec := model.MustSpecFor(model.KindTrade)

	var trade model.Trade
	err := l.db.WithContext(ctx).
		Where(map[string]interface{}{spec.IdentityColumns[0]: orderID}).
		Take(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("FindByOrderID", err)
	}
	return &trade, nil
}
