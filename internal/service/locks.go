package service

import "sync"

// portfolioLocks serializes writers per portfolio. Validation reads the whole
// log, so a concurrent append between validate and commit must not happen.
type portfolioLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPortfolioLocks() *portfolioLocks {
	return &portfolioLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex of portfolioID and returns its release function.
func (l *portfolioLocks) lock(portfolioID string) func() {
	l.mu.Lock()
	m, ok := l.locks[portfolioID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[portfolioID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
