package indexer

import (
	"sync"
	"sync/atomic"
)

// IndexLock provides non-blocking lock semantics using atomic operations
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// LockSet keys try-locks by repository id, so two workers in the same process
// never index the same repository concurrently even if the queue hands them
// jobs for it back to back.
type LockSet struct {
	mu    sync.Mutex
	locks map[int64]*IndexLock
}

// NewLockSet creates an empty lock set
func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[int64]*IndexLock)}
}

// TryAcquire attempts to acquire the lock for one repository
func (s *LockSet) TryAcquire(repositoryID int64) bool {
	s.mu.Lock()
	lock, ok := s.locks[repositoryID]
	if !ok {
		lock = &IndexLock{}
		s.locks[repositoryID] = lock
	}
	s.mu.Unlock()
	return lock.TryAcquire()
}

// Release releases the lock for one repository
func (s *LockSet) Release(repositoryID int64) {
	s.mu.Lock()
	lock, ok := s.locks[repositoryID]
	s.mu.Unlock()
	if ok {
		lock.Release()
	}
}
