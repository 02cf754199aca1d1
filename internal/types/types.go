// =============================================================================
// Payments Engine - Core Types
// =============================================================================
//
// Domain types shared across the engine: the transaction kinds accepted on
// the wire, the decoded input row, the stored transaction record with its
// dispute state, and the per-client snapshot emitted at the end of a run.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/payments-engine/internal/money"
)

// =============================================================================
// TRANSACTION KINDS
// =============================================================================

// TxKind is the closed set of operations accepted on the input stream.
type TxKind uint8

const (
	// Deposit credits funds to an account.
	Deposit TxKind = iota

	// Withdrawal debits funds from an account.
	Withdrawal

	// Dispute contests a prior transaction, placing its amount on hold.
	Dispute

	// Resolve withdraws a dispute, returning held funds to available.
	Resolve

	// Chargeback upholds a dispute, removing held funds and locking the
	// account.
	Chargeback
)

// String returns the lowercase wire name of the kind.
func (k TxKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return fmt.Sprintf("txkind(%d)", uint8(k))
	}
}

// ParseTxKind decodes a wire transaction type. Matching is case-insensitive
// and tolerates surrounding whitespace.
func ParseTxKind(text string) (TxKind, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "deposit":
		return Deposit, nil
	case "withdrawal":
		return Withdrawal, nil
	case "dispute":
		return Dispute, nil
	case "resolve":
		return Resolve, nil
	case "chargeback":
		return Chargeback, nil
	default:
		return 0, fmt.Errorf("unknown transaction type %q", text)
	}
}

// HasAmount reports whether rows of this kind carry an amount column.
func (k TxKind) HasAmount() bool {
	return k == Deposit || k == Withdrawal
}

// =============================================================================
// INPUT ROWS
// =============================================================================

// Row is one decoded input record. Amount is nil for the dispute family
// (dispute, resolve, chargeback), which reference a prior transaction
// instead of carrying their own value.
type Row struct {
	Kind   TxKind
	Client uint16
	Tx     uint32
	Amount *money.Money
}

// =============================================================================
// STORED TRANSACTION RECORDS
// =============================================================================

// RecordState is the dispute lifecycle state of a stored transaction.
//
//	Normal --dispute--> Disputed --resolve----> Normal
//	                             --chargeback-> ChargedBack (terminal)
type RecordState uint8

const (
	// Normal is the initial state, and the state after a resolve.
	Normal RecordState = iota

	// Disputed marks a transaction with an open dispute.
	Disputed

	// ChargedBack is absorbing: the transaction can never be disputed again.
	ChargedBack
)

// String returns a readable state name for logs.
func (s RecordState) String() string {
	switch s {
	case Normal:
		return "normal"
	case Disputed:
		return "disputed"
	case ChargedBack:
		return "charged_back"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// TransactionRecord is a stored deposit or withdrawal, kept for the
// lifetime of the run so later dispute-family rows can reference it.
// Dispute, resolve and chargeback rows are never stored.
type TransactionRecord struct {
	Tx     uint32
	Client uint16
	Kind   TxKind
	Amount money.Money
	State  RecordState
}

// =============================================================================
// OUTPUT SNAPSHOTS
// =============================================================================

// Snapshot is the final observable state of one client account.
type Snapshot struct {
	Client    uint16
	Available money.Money
	Held      money.Money
	Total     money.Money
	Locked    bool
}
