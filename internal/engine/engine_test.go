package engine

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/payments-engine/internal/money"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

func newTestEngine() *Engine {
	return New(zerolog.Nop())
}

func amt(text string) *money.Money {
	m := money.MustParse(text)
	return &m
}

func deposit(client uint16, tx uint32, amount string) types.Row {
	return types.Row{Kind: types.Deposit, Client: client, Tx: tx, Amount: amt(amount)}
}

func withdrawal(client uint16, tx uint32, amount string) types.Row {
	return types.Row{Kind: types.Withdrawal, Client: client, Tx: tx, Amount: amt(amount)}
}

func dispute(client uint16, tx uint32) types.Row {
	return types.Row{Kind: types.Dispute, Client: client, Tx: tx}
}

func resolve(client uint16, tx uint32) types.Row {
	return types.Row{Kind: types.Resolve, Client: client, Tx: tx}
}

func chargeback(client uint16, tx uint32) types.Row {
	return types.Row{Kind: types.Chargeback, Client: client, Tx: tx}
}

// snapshotOf pulls one client's final state out of the engine.
func snapshotOf(t *testing.T, e *Engine, client uint16) types.Snapshot {
	t.Helper()
	for _, snap := range e.Snapshots() {
		if snap.Client == client {
			return snap
		}
	}
	t.Fatalf("no snapshot for client %d", client)
	return types.Snapshot{}
}

func apply(e *Engine, rows ...types.Row) {
	for _, row := range rows {
		_ = e.Apply(row)
	}
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestSimpleDepositWithdrawal(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "1.0"),
		deposit(2, 2, "2.0"),
		deposit(1, 3, "2.0"),
		withdrawal(1, 4, "1.5"),
		withdrawal(2, 5, "3.0"),
	)

	one := snapshotOf(t, e, 1)
	assert.Equal(t, "1.5000", one.Available.String())
	assert.Equal(t, "0.0000", one.Held.String())
	assert.False(t, one.Locked)

	// Client 2's withdrawal exceeded the balance and never happened.
	two := snapshotOf(t, e, 2)
	assert.Equal(t, "2.0000", two.Available.String())
	assert.Equal(t, "2.0000", two.Total.String())
	assert.False(t, two.Locked)
}

func TestDisputeThenResolve(t *testing.T) {
	e := newTestEngine()
	apply(e, deposit(1, 1, "5.0"))

	require.NoError(t, e.Apply(dispute(1, 1)))
	held := snapshotOf(t, e, 1)
	assert.Equal(t, "0.0000", held.Available.String())
	assert.Equal(t, "5.0000", held.Held.String())
	assert.Equal(t, "5.0000", held.Total.String())

	require.NoError(t, e.Apply(resolve(1, 1)))
	final := snapshotOf(t, e, 1)
	assert.Equal(t, "5.0000", final.Available.String())
	assert.Equal(t, "0.0000", final.Held.String())
	assert.False(t, final.Locked)
}

func TestDisputeThenChargeback(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "5.0"),
		deposit(1, 2, "3.0"),
		dispute(1, 1),
		chargeback(1, 1),
	)

	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "3.0000", snap.Available.String())
	assert.Equal(t, "0.0000", snap.Held.String())
	assert.Equal(t, "3.0000", snap.Total.String())
	assert.True(t, snap.Locked)

	// Any further rows for the locked client are dropped.
	assert.ErrorIs(t, e.Apply(deposit(1, 9, "100.0")), types.ErrAccountLocked)
	assert.ErrorIs(t, e.Apply(dispute(1, 2)), types.ErrAccountLocked)
	assert.Equal(t, "3.0000", snapshotOf(t, e, 1).Available.String())
}

func TestDisputeUnknownTx(t *testing.T) {
	e := newTestEngine()
	apply(e, deposit(1, 1, "5.0"))

	assert.ErrorIs(t, e.Apply(dispute(1, 999)), types.ErrUnknownTx)

	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "5.0000", snap.Available.String())
	assert.Equal(t, "0.0000", snap.Held.String())
}

func TestDisputeMismatchedClient(t *testing.T) {
	e := newTestEngine()
	apply(e, deposit(1, 1, "5.0"))

	assert.ErrorIs(t, e.Apply(dispute(2, 1)), types.ErrClientMismatch)

	one := snapshotOf(t, e, 1)
	assert.Equal(t, "5.0000", one.Available.String())
	assert.Equal(t, "0.0000", one.Held.String())

	// The mismatched dispute still created client 2's empty account.
	two := snapshotOf(t, e, 2)
	assert.Equal(t, "0.0000", two.Available.String())
	assert.False(t, two.Locked)
}

func TestDisputedWithdrawalDrivesAvailableNegative(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "10.0"),
		withdrawal(1, 2, "10.0"),
		dispute(1, 2),
	)

	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "-10.0000", snap.Available.String())
	assert.Equal(t, "10.0000", snap.Held.String())
	assert.Equal(t, "0.0000", snap.Total.String())
	assert.False(t, snap.Locked)
}

// =============================================================================
// STATE MACHINE AND REJECTIONS
// =============================================================================

func TestBadAmounts(t *testing.T) {
	tests := []struct {
		name string
		row  types.Row
	}{
		{name: "deposit without amount", row: types.Row{Kind: types.Deposit, Client: 1, Tx: 1}},
		{name: "withdrawal without amount", row: types.Row{Kind: types.Withdrawal, Client: 1, Tx: 2}},
		{name: "zero deposit", row: deposit(1, 3, "0")},
		{name: "negative deposit", row: deposit(1, 4, "-1.0")},
		{name: "negative withdrawal", row: withdrawal(1, 5, "-1.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			assert.ErrorIs(t, e.Apply(tt.row), types.ErrBadAmount)
		})
	}
}

func TestDuplicateTx(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Apply(deposit(1, 1, "5.0")))

	t.Run("same client", func(t *testing.T) {
		assert.ErrorIs(t, e.Apply(deposit(1, 1, "5.0")), types.ErrDuplicateTx)
	})

	t.Run("across clients", func(t *testing.T) {
		assert.ErrorIs(t, e.Apply(deposit(2, 1, "5.0")), types.ErrDuplicateTx)
		assert.ErrorIs(t, e.Apply(withdrawal(2, 1, "1.0")), types.ErrDuplicateTx)
	})

	t.Run("against disputed record", func(t *testing.T) {
		require.NoError(t, e.Apply(dispute(1, 1)))
		assert.ErrorIs(t, e.Apply(deposit(1, 1, "5.0")), types.ErrDuplicateTx)
	})

	// Balances reflect exactly one application.
	assert.Equal(t, "5.0000", snapshotOf(t, e, 1).Total.String())
}

func TestFailedWithdrawalIsNotStored(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "1.0"),
		withdrawal(1, 2, "50.0"),
	)

	// The failed withdrawal never happened: its id is free again and a
	// dispute against it finds nothing.
	assert.ErrorIs(t, e.Apply(dispute(1, 2)), types.ErrUnknownTx)
	require.NoError(t, e.Apply(deposit(1, 2, "2.0")))
	assert.Equal(t, "3.0000", snapshotOf(t, e, 1).Available.String())
}

func TestResolveAndChargebackRequireOpenDispute(t *testing.T) {
	e := newTestEngine()
	apply(e, deposit(1, 1, "5.0"))

	assert.ErrorIs(t, e.Apply(resolve(1, 1)), types.ErrBadState)
	assert.ErrorIs(t, e.Apply(chargeback(1, 1)), types.ErrBadState)

	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "5.0000", snap.Available.String())
	assert.False(t, snap.Locked)
}

func TestRepeatedResolveIsNoOp(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "5.0"),
		dispute(1, 1),
		resolve(1, 1),
	)
	before := snapshotOf(t, e, 1)

	assert.ErrorIs(t, e.Apply(resolve(1, 1)), types.ErrBadState)
	assert.Equal(t, before, snapshotOf(t, e, 1))
}

func TestReDisputeAfterResolve(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "5.0"),
		dispute(1, 1),
		resolve(1, 1),
	)

	// A resolved record is back in its normal state and may be disputed
	// again.
	require.NoError(t, e.Apply(dispute(1, 1)))
	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "0.0000", snap.Available.String())
	assert.Equal(t, "5.0000", snap.Held.String())
}

func TestDisputeFamilyOnWrongClientLeavesRecordUntouched(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "5.0"),
		dispute(1, 1),
	)

	assert.ErrorIs(t, e.Apply(resolve(2, 1)), types.ErrClientMismatch)
	assert.ErrorIs(t, e.Apply(chargeback(2, 1)), types.ErrClientMismatch)

	snap := snapshotOf(t, e, 1)
	assert.Equal(t, "5.0000", snap.Held.String())
	assert.False(t, snap.Locked)
}

func TestStats(t *testing.T) {
	e := newTestEngine()
	apply(e,
		deposit(1, 1, "5.0"),
		deposit(1, 1, "5.0"),   // duplicate
		withdrawal(1, 2, "50"), // insufficient
		dispute(1, 99),         // unknown
	)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.Applied)
	assert.Equal(t, int64(3), stats.Rejected)
	assert.Equal(t, int64(1), stats.ByReason["duplicate_tx"])
	assert.Equal(t, int64(1), stats.ByReason["insufficient_funds"])
	assert.Equal(t, int64(1), stats.ByReason["unknown_tx"])
}

// =============================================================================
// PROPERTY CHECKS
// =============================================================================

// TestInvariantsOverRandomSequences drives random row sequences through the
// engine and checks the universal invariants after every applied row:
// held >= 0, locked is monotone, and the sum of totals equals successful
// deposits minus successful withdrawals minus chargeback amounts.
func TestInvariantsOverRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 20; run++ {
		e := newTestEngine()
		locked := make(map[uint16]bool)
		expected := money.Zero()

		nextTx := uint32(1)
		var knownTxs []types.Row

		for i := 0; i < 500; i++ {
			client := uint16(rng.Intn(5))
			var row types.Row

			switch rng.Intn(5) {
			case 0, 1:
				amount := money.FromUnits(int64(rng.Intn(100000) + 1))
				row = types.Row{Kind: types.Deposit, Client: client, Tx: nextTx, Amount: &amount}
				nextTx++
			case 2:
				amount := money.FromUnits(int64(rng.Intn(100000) + 1))
				row = types.Row{Kind: types.Withdrawal, Client: client, Tx: nextTx, Amount: &amount}
				nextTx++
			default:
				if len(knownTxs) == 0 {
					continue
				}
				ref := knownTxs[rng.Intn(len(knownTxs))]
				kind := []types.TxKind{types.Dispute, types.Resolve, types.Chargeback}[rng.Intn(3)]
				row = types.Row{Kind: kind, Client: ref.Client, Tx: ref.Tx}
			}

			err := e.Apply(row)
			if err == nil {
				switch row.Kind {
				case types.Deposit:
					expected, _ = expected.CheckedAdd(*row.Amount)
					knownTxs = append(knownTxs, row)
				case types.Withdrawal:
					expected, _ = expected.CheckedSub(*row.Amount)
					knownTxs = append(knownTxs, row)
				case types.Chargeback:
					rec, ok := findRecorded(knownTxs, row.Tx)
					require.True(t, ok)
					expected, _ = expected.CheckedSub(*rec.Amount)
				}
			}

			for _, snap := range e.Snapshots() {
				assert.False(t, snap.Held.IsNegative(), "held went negative for client %d", snap.Client)
				if locked[snap.Client] {
					assert.True(t, snap.Locked, "client %d unlocked after lock", snap.Client)
				}
				if snap.Locked {
					locked[snap.Client] = true
				}
			}
		}

		total := money.Zero()
		for _, snap := range e.Snapshots() {
			total, _ = total.CheckedAdd(snap.Total)
		}
		assert.Equal(t, expected, total, "conservation violated on run %d", run)
	}
}

func findRecorded(rows []types.Row, tx uint32) (types.Row, bool) {
	for _, row := range rows {
		if row.Tx == tx {
			return row, true
		}
	}
	return types.Row{}, false
}

func TestSnapshotsAreComplete(t *testing.T) {
	e := newTestEngine()
	for client := uint16(1); client <= 50; client++ {
		apply(e, deposit(client, uint32(client), "1.0"))
	}

	snaps := e.Snapshots()
	require.Len(t, snaps, 50)

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Client < snaps[j].Client })
	for i, snap := range snaps {
		assert.Equal(t, uint16(i+1), snap.Client)
	}
}
