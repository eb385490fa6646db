package ipcmutex

import "sync"

// Mutex wraps sync.Mutex for a pool that never leaves the process that
// created it — the common case in tests and cmd/slabdemo.
type Mutex struct {
	mu sync.Mutex
}

func NewMutex() *Mutex { return &Mutex{} }

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }

func (m *Mutex) TryLock() bool { return m.mu.TryLock() }
