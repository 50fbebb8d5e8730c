package ledger

import "errors"

var (
	// ErrInvalidPrice rejects negative, non-finite, or absurdly large prices.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrRecordNotFound is returned when no record exists for the given id.
	ErrRecordNotFound = errors.New("price record not found")

	// ErrRecordFinalized rejects votes on records in a terminal state.
	ErrRecordFinalized = errors.New("price record already finalized")
)
