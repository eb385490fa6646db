package slabpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateSmallThenFreeReturnsPageToFreeList(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	before := pool.Stats()

	ptr := pool.Allocate(8)
	require.True(t, ptr.Valid())

	mid := pool.Stats()
	require.Equal(t, before.FreePages-1, mid.FreePages)
	require.EqualValues(t, 1, mid.Classes[0].Used)
	require.Greater(t, mid.Classes[0].Total, uint64(0))

	pool.Free(ptr)
	after := pool.Stats()
	require.Equal(t, before.FreePages, after.FreePages)
	require.EqualValues(t, 0, after.Classes[0].Used)
	require.EqualValues(t, 0, after.Classes[0].Total)
}

func TestAllocateExactFillsOnePageThenTakesASecond(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	h := pool.header()
	class := exactClassOf(h)

	var ptrs []Ptr
	for i := 0; i < int(exactChunksPerPage)+1; i++ {
		p := pool.Allocate(64)
		require.True(t, p.Valid())
		ptrs = append(ptrs, p)
	}

	st := pool.Stats()
	require.EqualValues(t, exactChunksPerPage+1, st.Classes[class].Used)
	require.EqualValues(t, exactChunksPerPage*2, st.Classes[class].Total)
}

func TestAllocateBigFillsOnePageExactly(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	chunksPerBigPage := chunksPerPage(uint32(7)) // size 128 => shift 7

	var ptrs []Ptr
	for i := uint32(0); i < chunksPerBigPage; i++ {
		p := pool.Allocate(128)
		require.True(t, p.Valid())
		ptrs = append(ptrs, p)
	}

	_, _, shift, class := classify(128, pool.header().minShift)
	require.Equal(t, uint32(7), shift)
	st := pool.Stats()
	require.EqualValues(t, chunksPerBigPage, st.Classes[class].Used)

	p := pool.Allocate(128)
	require.True(t, p.Valid())
	st = pool.Stats()
	require.EqualValues(t, chunksPerBigPage*2, st.Classes[class].Total)
}

func TestAllocateMultiPageRoundTrips(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	before := pool.Stats()

	ptr := pool.Allocate(3000)
	require.True(t, ptr.Valid())

	pool.Free(ptr)
	after := pool.Stats()
	require.Equal(t, before.FreePages, after.FreePages)
}

func TestDoubleFreeIsDetectedAndHarmless(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	ptr := pool.Allocate(64)
	require.True(t, ptr.Valid())

	pool.Free(ptr)
	before := pool.Stats()
	pool.Free(ptr) // second free of the same pointer: logged, no state change
	after := pool.Stats()
	require.Equal(t, before, after)
}

func TestFreeOutsideOfPoolIsHarmless(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	before := pool.Stats()
	pool.Free(Ptr(pool.header().dataBegin - 1))
	after := pool.Stats()
	require.Equal(t, before, after)
}

func TestAllocateFailsWhenRegionIsExhausted(t *testing.T) {
	pool := newTestPool(t, 64*1024)
	var failed bool
	for i := 0; i < 100000; i++ {
		if !pool.Allocate(4096).Valid() {
			failed = true
			break
		}
	}
	require.True(t, failed, "expected allocation to eventually fail on an exhausted pool")
}

func TestAllocateZeroedClearsBytes(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	ptr := pool.Allocate(64)
	require.True(t, ptr.Valid())
	b := pool.Bytes(ptr, 64)
	for i := range b {
		b[i] = 0xFF
	}
	pool.Free(ptr)

	z := pool.AllocateZeroed(64)
	require.True(t, z.Valid())
	for _, b := range pool.Bytes(z, 64) {
		require.EqualValues(t, 0, b)
	}
}
