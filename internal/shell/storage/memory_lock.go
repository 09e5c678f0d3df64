package storage

import (
	"sync"
)

// MemoryLockManager serializes invocations within a single process.
// Used when no Redis is configured; sufficient for one daemon.
type MemoryLockManager struct {
	mu    sync.Mutex
	locks map[string]bool
}

func NewMemoryLockManager() *MemoryLockManager {
	return &MemoryLockManager{locks: make(map[string]bool)}
}

func (l *MemoryLockManager) TryAcquire(datasetID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks[datasetID] {
		return false, nil
	}
	l.locks[datasetID] = true
	return true, nil
}

func (l *MemoryLockManager) Release(datasetID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, datasetID)
	return nil
}
