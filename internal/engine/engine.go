// =============================================================================
// Payments Engine - Transaction State Machine
// =============================================================================
//
// The Engine is the central arbiter: given one decoded row and the shared
// stores, it applies the transaction state machine and reports the outcome.
// Every branch is total. A row is either applied or rejected with a reason;
// rejections are logged and never abort the run.
//
// =============================================================================

package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/payments-engine/internal/money"
	"github.com/ginjaninja78/payments-engine/internal/store"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

// Engine applies rows to the account manager and transaction store. Apply
// is safe for concurrent use as long as rows for one client are applied in
// source order by a single goroutine at a time, which both executor
// strategies guarantee.
type Engine struct {
	accounts *store.AccountManager
	txs      *store.TransactionStore
	log      zerolog.Logger
	stats    Stats
}

// New returns an engine over fresh, empty stores.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		accounts: store.NewAccountManager(),
		txs:      store.NewTransactionStore(),
		log:      log,
	}
}

// Apply runs one row through the state machine. The returned error is the
// rejection reason, already logged and counted; callers continue with the
// next row regardless.
func (e *Engine) Apply(row types.Row) error {
	acct := e.accounts.GetOrCreate(row.Client)

	// Invariant: a locked account ignores every subsequent row.
	if acct.Locked() {
		return e.reject(row, types.ErrAccountLocked)
	}

	var err error
	switch row.Kind {
	case types.Deposit, types.Withdrawal:
		err = e.applyTransfer(row)
	case types.Dispute:
		err = e.applyDispute(row)
	case types.Resolve:
		err = e.applyResolve(row)
	case types.Chargeback:
		err = e.applyChargeback(row)
	}

	if err != nil {
		return e.reject(row, err)
	}
	e.stats.applied.Add(1)
	return nil
}

// applyTransfer handles deposits and withdrawals: the only rows that carry
// an amount and the only rows that create stored records.
func (e *Engine) applyTransfer(row types.Row) error {
	if row.Amount == nil || !row.Amount.IsPositive() {
		return types.ErrBadAmount
	}
	amount := *row.Amount

	// Reserve the id before touching balances so a duplicate never applies
	// twice; the reservation is dropped again if the balance op fails.
	if err := e.txs.Insert(types.TransactionRecord{
		Tx:     row.Tx,
		Client: row.Client,
		Kind:   row.Kind,
		Amount: amount,
		State:  types.Normal,
	}); err != nil {
		return err
	}

	acct := e.accounts.GetOrCreate(row.Client)
	var err error
	if row.Kind == types.Deposit {
		err = acct.Deposit(amount)
	} else {
		err = acct.Withdraw(amount)
	}
	if err != nil {
		// A failed transfer never happened: it must not be referenceable
		// by later disputes.
		e.txs.Remove(row.Tx)
		return err
	}
	return nil
}

// applyDispute moves the recorded amount from available to held, for
// deposits and withdrawals alike. Disputing a withdrawal may drive
// available negative.
func (e *Engine) applyDispute(row types.Row) error {
	amount, err := e.txs.BeginDispute(row.Tx, row.Client)
	if err != nil {
		return err
	}
	if err := e.accounts.GetOrCreate(row.Client).Hold(amount); err != nil {
		e.txs.RevertDispute(row.Tx, row.Client)
		return err
	}
	return nil
}

// applyResolve returns the held amount to available and reopens the record
// for future disputes.
func (e *Engine) applyResolve(row types.Row) error {
	amount, err := e.txs.Resolve(row.Tx, row.Client)
	if err != nil {
		return err
	}
	if err := e.accounts.GetOrCreate(row.Client).Release(amount); err != nil {
		return err
	}
	return nil
}

// applyChargeback removes the held amount and locks the account. The record
// ends in its terminal state.
func (e *Engine) applyChargeback(row types.Row) error {
	amount, err := e.txs.ChargeBack(row.Tx, row.Client)
	if err != nil {
		return err
	}
	if err := e.accounts.GetOrCreate(row.Client).ChargeOff(amount); err != nil {
		return err
	}
	return nil
}

// reject logs and counts one rejected row, then hands the reason back.
func (e *Engine) reject(row types.Row, err error) error {
	e.stats.count(err)

	evt := e.log.Debug().
		Str("kind", row.Kind.String()).
		Uint16("client", row.Client).
		Uint32("tx", row.Tx)
	if row.Amount != nil {
		evt = evt.Str("amount", row.Amount.String())
	}
	evt.Err(err).Msg("row rejected")
	return err
}

// Snapshots returns the final state of every account seen during the run.
func (e *Engine) Snapshots() []types.Snapshot {
	return e.accounts.Snapshots()
}

// Stats returns a copy of the run counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

// reasonOf maps a rejection error to its counter bucket.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, types.ErrBadAmount):
		return "bad_amount"
	case errors.Is(err, types.ErrDuplicateTx):
		return "duplicate_tx"
	case errors.Is(err, types.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, types.ErrUnknownTx):
		return "unknown_tx"
	case errors.Is(err, types.ErrClientMismatch):
		return "client_mismatch"
	case errors.Is(err, types.ErrBadState):
		return "bad_state"
	case errors.Is(err, types.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, money.ErrOverflow), errors.Is(err, money.ErrUnderflow):
		return "arithmetic"
	default:
		return "other"
	}
}
