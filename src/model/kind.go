package model

import (
	"fmt"
	"time"
)

// Kind names an entity kind handled by the snapshot engine.
type Kind string

const (
	KindAccount  Kind = "account"
	KindPosition Kind = "position"
	KindGreeks   Kind = "greeks"
	KindTrade    Kind = "trade"
)

// KeySpec describes how an entity kind is identified, which columns an upsert
// replaces and which of those columns are change-relevant for the audit trail.
type KeySpec struct {
	Kind             Kind
	Table            string
	HistoryTable     string
	IdentityColumns  []string
	AttributeColumns []string
	// AuditColumns is a subset of AttributeColumns. Empty means the kind is not audited.
	AuditColumns []string
}

// Audited reports whether upserts of this kind can append history rows.
func (s KeySpec) Audited() bool {
	return s.HistoryTable != "" && len(s.AuditColumns) > 0
}

var keySpecs = map[Kind]KeySpec{
	KindAccount: {
		Kind:             KindAccount,
		Table:            TableAccount,
		HistoryTable:     TableAccountHistory,
		IdentityColumns:  []string{"gateway_name", "accountid"},
		AttributeColumns: []string{"balance", "frozen"},
		AuditColumns:     []string{"balance", "frozen"},
	},
	KindPosition: {
		Kind:             KindPosition,
		Table:            TablePosition,
		HistoryTable:     TablePositionHistory,
		IdentityColumns:  []string{"gateway_name", "symbol"},
		AttributeColumns: []string{"exchange", "direction", "volume", "frozen", "price", "pnl", "yd_volume"},
		AuditColumns:     []string{"volume", "price", "pnl"},
	},
	KindGreeks: {
		Kind:            KindGreeks,
		Table:           TableGreeks,
		IdentityColumns: []string{"gateway_name", "symbol"},
		AttributeColumns: []string{
			"exchange", "implied_volatility", "delta", "gamma", "vega", "theta",
			"option_price", "underlying_price",
		},
	},
	// trades are insert-only, nothing is ever replaced
	KindTrade: {
		Kind:            KindTrade,
		Table:           TableTrade,
		IdentityColumns: []string{"orderid"},
	},
}

// SpecFor returns the key specification of kind.
func SpecFor(kind Kind) (KeySpec, error) {
	spec, ok := keySpecs[kind]
	if !ok {
		return KeySpec{}, fmt.Errorf("unknown entity kind %q", kind)
	}
	return spec, nil
}

// MustSpecFor is SpecFor for kinds known at compile time.
func MustSpecFor(kind Kind) KeySpec {
	spec, err := SpecFor(kind)
	if err != nil {
		panic(err)
	}
	return spec
}

// Record is a current-state row owned by the state store.
type Record interface {
	Kind() Kind
	// IdentityValues are ordered like KeySpec.IdentityColumns.
	IdentityValues() []string
	// AuditValues are ordered like KeySpec.AuditColumns.
	AuditValues() []float64
	LastUpdated() time.Time
	SetLastUpdated(t time.Time)
	Validate() error
	// AuditRecord builds the history row for the record's current values,
	// or returns nil when the kind is not audited.
	AuditRecord(createdAt time.Time) any
}

// Delta is the change-relevant difference produced by one upsert.
type Delta struct {
	Kind     Kind
	Identity []string
	// Created is set when no record existed for the identity before the upsert.
	Created bool
	// Changed lists the audit columns whose value differs from the prior record.
	Changed []string
	Old     []float64
	New     []float64
	At      time.Time
}

// AuditWorthy reports whether the delta must produce a history row.
func (d Delta) AuditWorthy() bool {
	return d.Created || len(d.Changed) > 0
}

// Diff compares the change-relevant values of prior and next. A nil prior
// means the identity did not exist yet.
func Diff(prior, next Record) Delta {
	spec := MustSpecFor(next.Kind())
	d := Delta{
		Kind:     next.Kind(),
		Identity: next.IdentityValues(),
		New:      next.AuditValues(),
		At:       next.LastUpdated(),
	}
	if prior == nil {
		d.Created = true
		return d
	}

	d.Old = prior.AuditValues()
	for i, col := range spec.AuditColumns {
		// strict inequality, no tolerance
		if d.Old[i] != d.New[i] {
			d.Changed = append(d.Changed, col)
		}
	}
	return d
}
