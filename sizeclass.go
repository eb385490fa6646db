package slabpool

import (
	"math/bits"
	"sync"
)

// wordSize is the machine word width this allocator's exact-size regime is
// derived from. The teacher pool is portable enough to run on 32-bit hosts
// too, but this port targets the 64-bit layout only: one uintptr_t-sized
// bitmap word covers 64 chunks.
const wordSize = 8

var sizeConsts struct {
	once       sync.Once
	pageSize   uint32
	pageShift  uint32
	maxSize    uint32
	exactSize  uint32
	exactShift uint32
}

// InitSizeConstants derives the process-wide size constants from pageSize:
// maxSize = pageSize/2, exactSize = pageSize/(8*wordSize), exactShift =
// log2(exactSize). It is idempotent — only the first call takes effect,
// matching ngx_slab_sizes_init's one-shot, process-wide contract. pageSize
// must be a power of two.
func InitSizeConstants(pageSize uint32) {
	sizeConsts.once.Do(func() {
		sizeConsts.pageSize = pageSize
		sizeConsts.pageShift = uint32(bits.TrailingZeros32(pageSize))
		sizeConsts.maxSize = pageSize / 2
		sizeConsts.exactSize = pageSize / (8 * wordSize)
		sizeConsts.exactShift = uint32(bits.TrailingZeros32(sizeConsts.exactSize))
	})
}

func sizeConstantsReady() bool {
	return sizeConsts.pageSize != 0
}

// regime identifies which of the three per-page occupancy encodings a
// single-page size class uses.
type regime uint8

const (
	regimeSmall regime = iota
	regimeExact
	regimeBig
)

func regimeFor(shift uint32) regime {
	switch {
	case shift < sizeConsts.exactShift:
		return regimeSmall
	case shift == sizeConsts.exactShift:
		return regimeExact
	default:
		return regimeBig
	}
}

// classify reports how a requested allocation size should be satisfied.
// multiPage is true when the request must be served from whole pages
// directly; otherwise shift and class identify the size class to use.
func classify(size uint32, minShift uint32) (multiPage bool, pagesNeeded uint32, shift uint32, class uint32) {
	if size > sizeConsts.maxSize {
		pagesNeeded = size / sizeConsts.pageSize
		if size%sizeConsts.pageSize != 0 {
			pagesNeeded++
		}
		return true, pagesNeeded, 0, 0
	}

	minSize := uint32(1) << minShift
	if size <= minSize {
		return false, 0, minShift, 0
	}

	shift = uint32(bits.Len32(size - 1))
	return false, 0, shift, shift - minShift
}

func numClassesFor(pageShift, minShift uint32) uint32 {
	return pageShift - minShift
}
