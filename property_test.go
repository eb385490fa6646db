package slabpool

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// checkInvariants verifies the quantified properties that must hold after
// every operation: used never exceeds total per class, and the free list's
// total length matches the header's free page count.
func checkInvariants(t *rapid.T, pool *Pool) {
	h := pool.header()
	st := pool.statsLocked()
	for c, cls := range st.Classes {
		require.LessOrEqualf(t, cls.Used, cls.Total, "class %d used > total", c)
	}

	descs := descriptorTable(pool.region, h.descTableOff, h.numPages)
	var sum uint32
	cur := h.freeListHead
	seen := make(map[pageRef]bool)
	for cur != nilRef {
		require.Falsef(t, seen[cur], "cycle in free list at %v", cur)
		seen[cur] = true
		n := uint32(descs[pageRefToIndex(cur)].payload)
		sum += n
		if n > 1 {
			tail := &descs[pageRefToIndex(cur)+n-1]
			require.Equal(t, cur, tail.prev, "run tail does not back-point to head")
		}
		cur = descs[pageRefToIndex(cur)].next
	}
	require.Equal(t, h.freePageCount, sum)
}

func TestRandomAllocateFreeSequencesPreserveInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		region := make([]byte, 1<<20)
		pool, err := NewPool(region, Config{PageSize: 4096, MinShift: 3})
		require.NoError(rt, err)

		live := map[Ptr]uint32{}
		sizeGen := rapid.SampledFrom([]uint32{8, 16, 32, 64, 128, 512, 1500, 5000})

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(live) == 0 || rapid.Bool().Draw(rt, "allocate") {
				size := sizeGen.Draw(rt, "size")
				p := pool.Allocate(size)
				if p.Valid() {
					live[p] = size
				}
			} else {
				var victim Ptr
				for k := range live {
					victim = k
					break
				}
				pool.Free(victim)
				delete(live, victim)
			}
			checkInvariants(rt, pool)
		}
	})
}
