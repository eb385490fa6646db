package slabpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, regionSize int) *Pool {
	t.Helper()
	region := make([]byte, regionSize)
	pool, err := NewPool(region, Config{PageSize: 4096, MinShift: 3})
	require.NoError(t, err)
	return pool
}

func TestNewPoolLayout(t *testing.T) {
	pool := newTestPool(t, 1<<20)
	h := pool.header()
	require.Equal(t, poolMagic, h.magic)
	require.Equal(t, uint32(12), h.pageShift)
	require.Equal(t, uint32(3), h.minShift)
	require.Greater(t, h.numPages, uint32(0))
	require.Equal(t, h.numPages, h.freePageCount)

	descs := descriptorTable(pool.region, h.descTableOff, h.numPages)
	require.Equal(t, roleFree, descs[0].role)
	require.Equal(t, uint64(h.numPages), descs[0].payload)
}

func TestAttachReusesLayout(t *testing.T) {
	region := make([]byte, 1<<20)
	pool, err := NewPool(region, Config{PageSize: 4096, MinShift: 3})
	require.NoError(t, err)

	before := pool.Stats()
	_ = pool.Allocate(16)

	reattached, err := Attach(region, nil, "")
	require.NoError(t, err)
	after := reattached.Stats()
	require.NotEqual(t, before.FreePages, after.FreePages)
}

func TestAttachRejectsUninitializedRegion(t *testing.T) {
	region := make([]byte, 1<<20)
	_, err := Attach(region, nil, "")
	require.Error(t, err)
}

func TestComputeLayoutRejectsNonPowerOfTwoPageSize(t *testing.T) {
	_, err := computeLayout(1<<20, 4097, 3)
	require.Error(t, err)
}
