package engine

import "sync/atomic"

// Stats holds the run counters. All fields are atomic because partitions of
// one batch apply rows concurrently.
type Stats struct {
	applied  atomic.Int64
	rejected atomic.Int64

	badAmount         atomic.Int64
	duplicateTx       atomic.Int64
	insufficientFunds atomic.Int64
	unknownTx         atomic.Int64
	clientMismatch    atomic.Int64
	badState          atomic.Int64
	accountLocked     atomic.Int64
	arithmetic        atomic.Int64
	other             atomic.Int64
}

func (s *Stats) count(err error) {
	s.rejected.Add(1)
	switch reasonOf(err) {
	case "bad_amount":
		s.badAmount.Add(1)
	case "duplicate_tx":
		s.duplicateTx.Add(1)
	case "insufficient_funds":
		s.insufficientFunds.Add(1)
	case "unknown_tx":
		s.unknownTx.Add(1)
	case "client_mismatch":
		s.clientMismatch.Add(1)
	case "bad_state":
		s.badState.Add(1)
	case "account_locked":
		s.accountLocked.Add(1)
	case "arithmetic":
		s.arithmetic.Add(1)
	default:
		s.other.Add(1)
	}
}

// StatsSnapshot is a plain copy of the counters for the run summary.
type StatsSnapshot struct {
	Applied  int64
	Rejected int64

	ByReason map[string]int64
}

func (s *Stats) snapshot() StatsSnapshot {
	byReason := map[string]int64{
		"bad_amount":         s.badAmount.Load(),
		"duplicate_tx":       s.duplicateTx.Load(),
		"insufficient_funds": s.insufficientFunds.Load(),
		"unknown_tx":         s.unknownTx.Load(),
		"client_mismatch":    s.clientMismatch.Load(),
		"bad_state":          s.badState.Load(),
		"account_locked":     s.accountLocked.Load(),
		"arithmetic":         s.arithmetic.Load(),
		"other":              s.other.Load(),
	}
	for k, v := range byReason {
		if v == 0 {
			delete(byReason, k)
		}
	}
	return StatsSnapshot{
		Applied:  s.applied.Load(),
		Rejected: s.rejected.Load(),
		ByReason: byReason,
	}
}
