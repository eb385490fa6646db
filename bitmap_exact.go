package slabpool

import "math/bits"

// bitmap_exact.go implements the EXACT regime (spec.md §4.D, shift ==
// exact_shift): exactly 8*wordSize chunks per page, one bit per chunk, the
// whole bitmap fits in the descriptor's 64-bit payload word with no
// reserved prefix and no in-page storage at all.

const exactChunksPerPage = 8 * wordSize

func (p *Pool) initExactPage(page pageRef) {
	h := p.header()
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)
	d := &descs[pageRefToIndex(page)]
	d.role = roleExact
	d.payload = 0
}

func allocExact(bitmap uint64) (newBitmap uint64, chunk uint32, ok bool) {
	if bitmap == ^uint64(0) {
		return bitmap, 0, false
	}
	bit := uint32(bits.TrailingZeros64(^bitmap))
	return bitmap | (uint64(1) << bit), bit, true
}

func freeExact(bitmap uint64, chunk uint32) (newBitmap uint64, ok bool) {
	bit := uint64(1) << chunk
	if bitmap&bit == 0 {
		return bitmap, false
	}
	return bitmap &^ bit, true
}

func isExactPageFull(bitmap uint64) bool  { return bitmap == ^uint64(0) }
func isExactPageEmpty(bitmap uint64) bool { return bitmap == 0 }
