package types

import "errors"

// Semantic rejection sentinels. Every rejected row maps to exactly one of
// these; the engine logs the rejection and continues with the next row.
var (
	// ErrBadAmount rejects a deposit or withdrawal whose amount is missing,
	// zero or negative.
	ErrBadAmount = errors.New("amount missing or not positive")

	// ErrDuplicateTx rejects a value-bearing row whose transaction id is
	// already stored, regardless of the stored record's state or client.
	ErrDuplicateTx = errors.New("duplicate transaction id")

	// ErrInsufficientFunds rejects a withdrawal larger than the available
	// balance.
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// ErrUnknownTx rejects a dispute-family row referencing a transaction
	// id that was never stored.
	ErrUnknownTx = errors.New("unknown transaction id")

	// ErrClientMismatch rejects a dispute-family row whose client does not
	// own the referenced transaction.
	ErrClientMismatch = errors.New("client does not own transaction")

	// ErrBadState rejects a dispute-family row whose referenced transaction
	// is not in the required lifecycle state.
	ErrBadState = errors.New("invalid transaction state transition")

	// ErrAccountLocked rejects any row targeting a locked account.
	ErrAccountLocked = errors.New("account is locked")
)
