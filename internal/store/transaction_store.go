// =============================================================================
// Payments Engine - Transaction Store
// =============================================================================
//
// Indexed record of past deposits and withdrawals, keyed by transaction id.
// The store is sharded: each shard guards its slice of the id space with its
// own RWMutex, so lookups and inserts for distinct transactions proceed in
// parallel while operations on one id serialise.
//
// Dispute-lifecycle transitions (begin-dispute, resolve, chargeback) are
// performed atomically under the shard lock. Callers therefore never observe
// a half-transitioned record, and two racing transitions on the same id
// cannot both succeed.
//
// =============================================================================

package store

import (
	"sync"

	"github.com/ginjaninja78/payments-engine/internal/money"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

// txShardCount is the number of independent shards. Power of two so the
// shard index is a mask of the id's low bits.
const txShardCount = 64

type txShard struct {
	mu      sync.RWMutex
	records map[uint32]*types.TransactionRecord
}

// TransactionStore maps transaction id to its stored record. Records are
// created on successful deposits and withdrawals and live for the whole
// run; dispute-family rows only transition their state.
type TransactionStore struct {
	shards [txShardCount]txShard
}

// NewTransactionStore returns an empty store.
func NewTransactionStore() *TransactionStore {
	s := &TransactionStore{}
	for i := range s.shards {
		s.shards[i].records = make(map[uint32]*types.TransactionRecord)
	}
	return s
}

func (s *TransactionStore) shard(tx uint32) *txShard {
	return &s.shards[tx&(txShardCount-1)]
}

// Insert stores a new record. Fails with types.ErrDuplicateTx when the id
// is already present, whatever the stored record's state or client.
func (s *TransactionStore) Insert(rec types.TransactionRecord) error {
	sh := s.shard(rec.Tx)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.records[rec.Tx]; ok {
		return types.ErrDuplicateTx
	}
	stored := rec
	sh.records[rec.Tx] = &stored
	return nil
}

// Remove drops a record inserted earlier in the same row application. Used
// only to back out a reservation whose balance operation failed.
func (s *TransactionStore) Remove(tx uint32) {
	sh := s.shard(tx)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.records, tx)
}

// Contains reports whether a record exists for the id.
func (s *TransactionStore) Contains(tx uint32) bool {
	sh := s.shard(tx)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.records[tx]
	return ok
}

// Get returns a copy of the stored record, if any.
func (s *TransactionStore) Get(tx uint32) (types.TransactionRecord, bool) {
	sh := s.shard(tx)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[tx]
	if !ok {
		return types.TransactionRecord{}, false
	}
	return *rec, true
}

// transition validates and applies one state-machine step under the shard
// lock, returning the recorded amount on success.
func (s *TransactionStore) transition(tx uint32, client uint16, from, to types.RecordState) (money.Money, error) {
	sh := s.shard(tx)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[tx]
	if !ok {
		return money.Zero(), types.ErrUnknownTx
	}
	if rec.Client != client {
		return money.Zero(), types.ErrClientMismatch
	}
	if rec.State != from {
		return money.Zero(), types.ErrBadState
	}

	rec.State = to
	return rec.Amount, nil
}

// BeginDispute transitions Normal -> Disputed and returns the disputed
// amount. A record resolved earlier may be disputed again; a charged-back
// record may not.
func (s *TransactionStore) BeginDispute(tx uint32, client uint16) (money.Money, error) {
	return s.transition(tx, client, types.Normal, types.Disputed)
}

// Resolve transitions Disputed -> Normal and returns the amount to release.
func (s *TransactionStore) Resolve(tx uint32, client uint16) (money.Money, error) {
	return s.transition(tx, client, types.Disputed, types.Normal)
}

// ChargeBack transitions Disputed -> ChargedBack and returns the amount to
// charge off. ChargedBack is terminal.
func (s *TransactionStore) ChargeBack(tx uint32, client uint16) (money.Money, error) {
	return s.transition(tx, client, types.Disputed, types.ChargedBack)
}

// RevertDispute restores Disputed -> Normal after a hold failed, so the
// record does not stay disputed with no funds held.
func (s *TransactionStore) RevertDispute(tx uint32, client uint16) {
	_, _ = s.transition(tx, client, types.Disputed, types.Normal)
}

// Len returns the number of stored records.
func (s *TransactionStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}
