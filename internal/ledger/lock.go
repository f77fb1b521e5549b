package ledger

import "sync"

// lockTable hands out one mutex per account so that read-modify-write of a
// balance is serialized per account while disjoint accounts proceed in
// parallel. Mutexes are created on first use and kept for the process
// lifetime; the set of accounts is small relative to memory.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) lockFor(accountID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[accountID] = l
	}
	return l
}

// acquire locks a single account and returns the release function.
func (t *lockTable) acquire(accountID string) func() {
	l := t.lockFor(accountID)
	l.Lock()
	return l.Unlock
}

// acquirePair locks two accounts in ascending id order regardless of call
// direction, so two concurrent transfers over the same pair can never
// deadlock.
func (t *lockTable) acquirePair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	fl := t.lockFor(first)
	sl := t.lockFor(second)
	fl.Lock()
	sl.Lock()
	return func() {
		sl.Unlock()
		fl.Unlock()
	}
}
