// =============================================================================
// Payments Engine - Account Manager
// =============================================================================
//
// Mapping client id -> Account, created lazily on first reference. Sharded
// like the transaction store so account creation for distinct clients never
// contends on a single lock. The manager owns every Account for the
// lifetime of the run; the engine borrows them one row at a time.
//
// =============================================================================

package store

import (
	"sync"

	"github.com/ginjaninja78/payments-engine/internal/account"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

const accountShardCount = 32

type accountShard struct {
	mu       sync.RWMutex
	accounts map[uint16]*account.Account
}

// AccountManager owns all client accounts.
type AccountManager struct {
	shards [accountShardCount]accountShard
}

// NewAccountManager returns an empty manager.
func NewAccountManager() *AccountManager {
	m := &AccountManager{}
	for i := range m.shards {
		m.shards[i].accounts = make(map[uint16]*account.Account)
	}
	return m
}

func (m *AccountManager) shard(client uint16) *accountShard {
	return &m.shards[client&(accountShardCount-1)]
}

// GetOrCreate returns the client's account, creating it with zero balances
// on first use.
func (m *AccountManager) GetOrCreate(client uint16) *account.Account {
	sh := m.shard(client)

	sh.mu.RLock()
	acct, ok := sh.accounts[client]
	sh.mu.RUnlock()
	if ok {
		return acct
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if acct, ok := sh.accounts[client]; ok {
		return acct
	}
	acct = account.New(client)
	sh.accounts[client] = acct
	return acct
}

// Len returns the number of accounts created so far.
func (m *AccountManager) Len() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		n += len(sh.accounts)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshots returns the state of every account exactly once, in no
// particular order.
func (m *AccountManager) Snapshots() []types.Snapshot {
	snaps := make([]types.Snapshot, 0, m.Len())
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		for _, acct := range sh.accounts {
			snaps = append(snaps, acct.Snapshot())
		}
		sh.mu.RUnlock()
	}
	return snaps
}
