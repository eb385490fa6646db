//go:build linux

package ipcmutex

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FutexMutex is a cross-process mutex over a single int32 word living
// inside the shared region itself (spec.md §9's design note: "the
// concurrency envelope could use a futex ... instead of an in-process
// mutex, without changing any other component"). It follows the classic
// three-state futex mutex (Drepper, "Futexes Are Tricky"): 0 unlocked, 1
// locked with no waiters, 2 locked with waiters.
type FutexMutex struct {
	word *int32
}

// NewFutexMutex binds a FutexMutex to a word inside a shared region. Every
// process attaching to the same pool must bind to the same word (the
// pool's header.lockWord) for the lock to be meaningful across them.
func NewFutexMutex(word *int32) *FutexMutex {
	return &FutexMutex{word: word}
}

func (f *FutexMutex) Lock() {
	c := atomic.CompareAndSwapInt32(f.word, 0, 1)
	if c {
		return
	}
	state := atomic.SwapInt32(f.word, 2)
	for state != 0 {
		f.wait(2)
		state = atomic.SwapInt32(f.word, 2)
	}
}

func (f *FutexMutex) TryLock() bool {
	return atomic.CompareAndSwapInt32(f.word, 0, 1)
}

func (f *FutexMutex) Unlock() {
	if atomic.AddInt32(f.word, -1) != 0 {
		atomic.StoreInt32(f.word, 0)
		f.wake()
	}
}

func (f *FutexMutex) wait(expect int32) {
	_, _ = unix.Futex((*int32)(unsafe.Pointer(f.word)), unix.FUTEX_WAIT, expect, nil, nil, 0)
}

func (f *FutexMutex) wake() {
	_, _ = unix.Futex((*int32)(unsafe.Pointer(f.word)), unix.FUTEX_WAKE, 1, nil, nil, 0)
}
