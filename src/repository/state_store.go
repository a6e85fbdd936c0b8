package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"snapshotengine/src/model"
	"snapshotengine/src/utils"
)

// StateStore keeps one current-state row per entity identity and appends the
// audit trail in the same transaction as every upsert.
type StateStore struct {
	db        *gorm.DB
	audit     *AuditLogger
	now       func() time.Time
	precision string
}

// NewStateStore creates a state store on top of db.
func NewStateStore(db *gorm.DB) *StateStore {
	logger.WithField("component", "StateStore").
		Info("Creating new StateStore")

	return &StateStore{
		db:        db,
		audit:     NewAuditLogger(),
		now:       time.Now,
		precision: "microsecond",
	}
}

// WithClock returns a copy of the store that reads the time from now.
func (s *StateStore) WithClock(now func() time.Time) *StateStore {
	cp := *s
	cp.now = now
	return &cp
}

// WithPrecision returns a copy of the store that truncates last update times
// to granularity (see utils.ResetTime).
func (s *StateStore) WithPrecision(granularity string) *StateStore {
	cp := *s
	cp.precision = granularity
	return &cp
}

// UpsertAccount stores a single account snapshot.
func (s *StateStore) UpsertAccount(ctx context.Context, account *model.Account) (model.Delta, error) {
	deltas, err := s.UpsertAccounts(ctx, []*model.Account{account})
	if err != nil {
		return model.Delta{}, err
	}
	return deltas[0], nil
}

// UpsertAccounts stores a batch of account snapshots in one transaction.
func (s *StateStore) UpsertAccounts(ctx context.Context, accounts []*model.Account) ([]model.Delta, error) {
	return upsertBatch(ctx, s, "UpsertAccounts", accounts)
}

// UpsertPosition stores a single position snapshot.
func (s *StateStore) UpsertPosition(ctx context.Context, position *model.Position) (model.Delta, error) {
	deltas, err := s.UpsertPositions(ctx, []*model.Position{position})
	if err != nil {
		return model.Delta{}, err
	}
	return deltas[0], nil
}

// UpsertPositions stores a batch of position snapshots in one transaction.
// Either every position is applied or none is.
func (s *StateStore) UpsertPositions(ctx context.Context, positions []*model.Position) ([]model.Delta, error) {
	return upsertBatch(ctx, s, "UpsertPositions", positions)
}

// UpsertGreeks stores the latest greeks of one instrument.
func (s *StateStore) UpsertGreeks(ctx context.Context, greeks *model.Greeks) (model.Delta, error) {
	deltas, err := upsertBatch(ctx, s, "UpsertGreeks", []*model.Greeks{greeks})
	if err != nil {
		return model.Delta{}, err
	}
	return deltas[0], nil
}

func (s *StateStore) stamp() time.Time {
	return utils.ResetTime(s.now(), s.precision)
}

func upsertBatch[T any, PT interface {
	*T
	model.Record
}](ctx context.Context, s *StateStore, op string, records []PT) ([]model.Delta, error) {
	if len(records) == 0 {
		return nil, nil
	}

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
	}

	spec := model.MustSpecFor(records[0].Kind())

	logger.WithFields(map[string]interface{}{
		"repo":  "StateStore",
		"op":    op,
		"table": spec.Table,
		"count": len(records),
	}).Debug("Upserting state records")

	deltas := make([]model.Delta, 0, len(records))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			delta, err := upsertOne[T, PT](tx, s, spec, rec)
			if err != nil {
				return err
			}
			deltas = append(deltas, delta)
		}
		return nil
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "StateStore",
			"op":    op,
			"kind":  spec.Kind,
			"count": len(records),
		}).WithError(err).Error("Failed to upsert state records, batch rolled back")
		return nil, storageError(op, err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "StateStore",
		"op":      op,
		"kind":    spec.Kind,
		"count":   len(records),
		"audited": countAuditWorthy(spec, deltas),
	}).Debug("State records upserted")

	return deltas, nil
}

// upsertOne claims the identity with INSERT .. ON CONFLICT DO NOTHING first.
// When the row already exists it is read under lock, which queues behind any
// other writer of the same identity, and then updated. Whether a record was
// created is decided by the insert, never by an earlier read.
func upsertOne[T any, PT interface {
	*T
	model.Record
}](tx *gorm.DB, s *StateStore, spec model.KeySpec, rec PT) (model.Delta, error) {
	rec.SetLastUpdated(s.stamp())

	res := tx.Omit("id").
		Clauses(clause.OnConflict{
			Columns:   toColumns(spec.IdentityColumns),
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return model.Delta{}, res.Error
	}

	var delta model.Delta
	if res.RowsAffected == 1 {
		delta = model.Diff(nil, rec)
	} else {
		var existing T
		prior := PT(&existing)
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(identityCondition(spec, rec)).
			Take(prior).Error; err != nil {
			return model.Delta{}, err
		}

		if rec.LastUpdated().Before(prior.LastUpdated()) {
			// never move last_update_time backwards
			rec.SetLastUpdated(prior.LastUpdated())
		}

		// Updates copies the new values into prior, diff first
		delta = model.Diff(prior, rec)

		if err := tx.Model(prior).
			Where(identityCondition(spec, rec)).
			Select(updateColumns(spec)).
			Updates(rec).Error; err != nil {
			return model.Delta{}, err
		}
	}

	if _, err := s.audit.MaybeAppend(tx, rec, delta); err != nil {
		return model.Delta{}, err
	}

	return delta, nil
}

func identityCondition(spec model.KeySpec, rec model.Record) map[string]interface{} {
	values := rec.IdentityValues()
	cond := make(map[string]interface{}, len(values))
	for i, col := range spec.IdentityColumns {
		cond[col] = values[i]
	}
	return cond
}

func toColumns(names []string) []clause.Column {
	cols := make([]clause.Column, len(names))
	for i, name := range names {
		cols[i] = clause.Column{Name: name}
	}
	return cols
}

func updateColumns(spec model.KeySpec) []string {
	cols := make([]string, 0, len(spec.AttributeColumns)+1)
	cols = append(cols, spec.AttributeColumns...)
	return append(cols, "last_update_time")
}

func countAuditWorthy(spec model.KeySpec, deltas []model.Delta) int {
	if !spec.Audited() {
		return 0
	}
	n := 0
	for _, d := range deltas {
		if d.AuditWorthy() {
			n++
		}
	}
	return n
}

// FindAccount returns the current state of one account, or (nil, nil) when absent.
func (s *StateStore) FindAccount(ctx context.Context, gateway, accountID string) (*model.Account, error) {
	var account model.Account
	err := s.db.WithContext(ctx).
		Where(map[string]interface{}{"gateway_name": gateway, "accountid": accountID}).
		Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("FindAccount", err)
	}
	return &account, nil
}

// FindPosition returns the current state of one position, or (nil, nil) when absent.
func (s *StateStore) FindPosition(ctx context.Context, gateway, symbol string) (*model.Position, error) {
	var position model.Position
	err := s.db.WithContext(ctx).
		Where(map[string]interface{}{"gateway_name": gateway, "symbol": symbol}).
		Take(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("FindPosition", err)
	}
	return &position, nil
}
