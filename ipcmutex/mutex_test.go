package ipcmutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutexExcludesConcurrentAccess(t *testing.T) {
	m := NewMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock()
			defer m.Unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 100, counter)
}

func TestMutexTryLock(t *testing.T) {
	m := NewMutex()
	require.True(t, m.TryLock())
	require.False(t, m.TryLock())
	m.Unlock()
	require.True(t, m.TryLock())
}

func TestFutexMutexExcludesConcurrentAccess(t *testing.T) {
	var word int32
	m := NewFutexMutex(&word)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock()
			defer m.Unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 200, counter)
}
