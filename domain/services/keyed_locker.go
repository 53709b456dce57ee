package services

import (
	"fmt"
	"sync"
)

// KeyedLocker hands out one mutex per key. Idle keys are dropped once no holder or waiter remains.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocker creates an empty locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock blocks until the key is free and returns its unlock function
func (l *KeyedLocker) Lock(key string) func() {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &keyedLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lk.mu.Unlock()
			l.mu.Lock()
			lk.refs--
			if lk.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// LockInvestor serializes everything that reads and appends to one investor's ledger
func (l *KeyedLocker) LockInvestor(investorID int64) func() {
	return l.Lock(fmt.Sprintf("investor:%d", investorID))
}

// LockContract serializes state changes of one contract. Take the investor lock first.
func (l *KeyedLocker) LockContract(contractID int64) func() {
	return l.Lock(fmt.Sprintf("contract:%d", contractID))
}

// size reports how many keys are currently tracked
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
