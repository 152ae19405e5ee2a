package utils

import (
	"sync"
)

// OptionalRWMutex is a reader/writer lock that can be switched off for caches whose caller
// guarantees external synchronization
type OptionalRWMutex struct {
	Mutex    sync.RWMutex
	UseMutex bool
}

func (m *OptionalRWMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalRWMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

func (m *OptionalRWMutex) RLock() {
	if m.UseMutex {
		m.Mutex.RLock()
	}
}

func (m *OptionalRWMutex) RUnlock() {
	if m.UseMutex {
		m.Mutex.RUnlock()
	}
}

// WithRLock runs fn while holding the read lock
func (m *OptionalRWMutex) WithRLock(fn func()) {
	m.RLock()
	defer m.RUnlock()

	fn()
}
