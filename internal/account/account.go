// =============================================================================
// Payments Engine - Account Module
// =============================================================================
//
// Per-client account state: available funds, funds held under dispute, and
// the locked flag set by a chargeback. Every mutation preserves the account
// invariants:
//
//   - held never goes negative
//   - available + held (the total) stays representable
//   - withdrawals never drive available below zero; only a hold can
//   - once locked, every further mutation is rejected
//
// Each Account carries its own mutex. Operations on distinct clients run in
// parallel; operations on one client serialise on its lock, held only for
// the duration of a single row.
//
// =============================================================================

package account

import (
	"sync"

	"github.com/ginjaninja78/payments-engine/internal/money"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

// Account is the mutable state of one client.
type Account struct {
	mu        sync.Mutex
	client    uint16
	available money.Money
	held      money.Money
	locked    bool
}

// New returns an unlocked account with zero balances.
func New(client uint16) *Account {
	return &Account{client: client}
}

// Deposit credits amount to available funds. The caller guarantees
// amount > 0. Fails when the account is locked or the new balance would
// not be representable.
func (a *Account) Deposit(amount money.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked {
		return types.ErrAccountLocked
	}

	next, err := a.available.CheckedAdd(amount)
	if err != nil {
		return err
	}
	// The total must stay representable too.
	if _, err := next.CheckedAdd(a.held); err != nil {
		return err
	}

	a.available = next
	return nil
}

// Withdraw debits amount from available funds. Fails with
// types.ErrInsufficientFunds when available < amount; a withdrawal never
// drives available below zero.
func (a *Account) Withdraw(amount money.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked {
		return types.ErrAccountLocked
	}
	if a.available.Cmp(amount) < 0 {
		return types.ErrInsufficientFunds
	}

	next, err := a.available.CheckedSub(amount)
	if err != nil {
		return err
	}

	a.available = next
	return nil
}

// Hold moves amount from available to held for an open dispute. Available
// may go negative here: disputing a transaction whose funds were already
// withdrawn leaves the account owing the held amount.
func (a *Account) Hold(amount money.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked {
		return types.ErrAccountLocked
	}

	nextAvailable, err := a.available.CheckedSub(amount)
	if err != nil {
		return err
	}
	nextHeld, err := a.held.CheckedAdd(amount)
	if err != nil {
		return err
	}

	a.available = nextAvailable
	a.held = nextHeld
	return nil
}

// Release moves amount from held back to available for a resolved dispute.
// The caller guarantees held >= amount via the record state machine.
func (a *Account) Release(amount money.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked {
		return types.ErrAccountLocked
	}

	nextHeld, err := a.held.CheckedSub(amount)
	if err != nil {
		return err
	}
	if nextHeld.IsNegative() {
		return types.ErrBadState
	}
	nextAvailable, err := a.available.CheckedAdd(amount)
	if err != nil {
		return err
	}

	a.available = nextAvailable
	a.held = nextHeld
	return nil
}

// ChargeOff removes amount from held and locks the account. The total
// decreases by the charged amount; the lock is permanent for the run.
func (a *Account) ChargeOff(amount money.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.locked {
		return types.ErrAccountLocked
	}

	nextHeld, err := a.held.CheckedSub(amount)
	if err != nil {
		return err
	}
	if nextHeld.IsNegative() {
		return types.ErrBadState
	}

	a.held = nextHeld
	a.locked = true
	return nil
}

// Locked reports whether the account has been locked by a chargeback.
func (a *Account) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

// Snapshot returns the current observable state. Total is always
// representable: Deposit checks the combined balance, Hold and Release
// leave it unchanged, and Withdraw and ChargeOff only lower it while
// keeping available and held within range.
func (a *Account) Snapshot() types.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	total, _ := a.available.CheckedAdd(a.held)
	return types.Snapshot{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     total,
		Locked:    a.locked,
	}
}
