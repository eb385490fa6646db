package slabpool

// Allocate acquires the pool's lock, performs §4.E allocate, and releases
// it. It returns NilPtr on failure; it never returns a Go error.
func (p *Pool) Allocate(size uint32) Ptr {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.allocateLocked(size)
}

// AllocateZeroed is Allocate followed by zeroing the returned bytes, all
// under one critical section.
func (p *Pool) AllocateZeroed(size uint32) Ptr {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.allocateZeroedLocked(size)
}

// Free acquires the pool's lock, performs §4.E free, and releases it. It
// tolerates an invalid ptr by reporting a diagnostic and returning.
func (p *Pool) Free(ptr Ptr) {
	p.locker.Lock()
	defer p.locker.Unlock()
	p.freeLocked(ptr)
}

// AllocateLocked is Allocate without the lock operations; the caller must
// already hold the pool's lock.
func (p *Pool) AllocateLocked(size uint32) Ptr { return p.allocateLocked(size) }

// AllocateZeroedLocked is AllocateZeroed without the lock operations.
func (p *Pool) AllocateZeroedLocked(size uint32) Ptr { return p.allocateZeroedLocked(size) }

// FreeLocked is Free without the lock operations.
func (p *Pool) FreeLocked(ptr Ptr) { p.freeLocked(ptr) }

// Lock exposes the pool's underlying locker directly, for callers that
// need to bracket several allocate/free calls (or other shared-region
// work) inside one critical section.
func (p *Pool) Lock()   { p.locker.Lock() }
func (p *Pool) Unlock() { p.locker.Unlock() }
