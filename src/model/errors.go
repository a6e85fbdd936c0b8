package model

import "errors"

var (
	// ErrMalformedPayload marks an event missing identity or numeric fields. The event is dropped.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrDuplicateTrade marks a trade whose order id is already in the ledger.
	ErrDuplicateTrade = errors.New("duplicate trade")
	// ErrStorageUnavailable wraps every failure reported by the database.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSideEffectFailure marks a market-data subscription request that could not be delivered.
	ErrSideEffectFailure = errors.New("side effect failure")
)
