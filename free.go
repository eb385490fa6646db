package slabpool

// freeLocked implements spec.md §4.E free without acquiring the pool's
// lock. Every failure path reports a diagnostic and returns; free never
// propagates an error to its caller.
func (p *Pool) freeLocked(ptr Ptr) {
	h := p.header()
	off := uint32(ptr)

	if off < h.dataBegin || off >= h.dataEnd {
		p.diagOutsideOfPool(off)
		return
	}

	rel := off - h.dataBegin
	idx := rel / h.pageSize
	inPage := rel % h.pageSize

	descs := descriptorTable(p.region, h.descTableOff, h.numPages)
	d := &descs[idx]

	switch d.role {
	case roleAlloc:
		p.freeMultiPage(idx, inPage, d)
	case roleSmall:
		p.freeSmallChunk(idx, inPage, d)
	case roleExact:
		p.freeExactChunk(idx, inPage, d)
	case roleBig:
		p.freeBigChunk(idx, inPage, d)
	case roleFree:
		p.diagPageAlreadyFree(idx)
	}
}

func (p *Pool) freeMultiPage(idx uint32, inPage uint32, d *pageDescriptor) {
	if d.payload == busyPayload {
		p.diagWrongPage(idx)
		return
	}
	if d.payload&pageStartBit == 0 {
		p.diagPageAlreadyFree(idx)
		return
	}
	if inPage != 0 {
		p.diagWrongChunk(inPage)
		return
	}
	n := uint32(d.payload &^ pageStartBit)
	h := p.header()
	p.maybePoison(p.pageOffset(idx), n*h.pageSize)
	p.freePages(pageIndexToRef(idx), n)
}

func (p *Pool) freeSmallChunk(idx uint32, inPage uint32, d *pageDescriptor) {
	h := p.header()
	shift := uint32(d.payload)
	if inPage&((uint32(1)<<shift)-1) != 0 || inPage>>shift < smallReservedChunks(shift) {
		p.diagWrongChunk(inPage)
		return
	}
	data := p.pageData(idx)
	wasFull := isSmallPageFull(data, shift)
	if !freeSmall(data, shift, inPage) {
		p.diagChunkAlreadyFree(inPage)
		return
	}
	p.maybePoison(idx*h.pageSize+h.dataBegin+inPage, uint32(1)<<shift)

	class := shift - h.minShift
	stats := statTable(p.region, h.statTableOff, h.numClasses)
	stats[class].used--

	page := pageIndexToRef(idx)
	if wasFull {
		p.slotPush(class, page)
	}
	if isSmallPageEmpty(data, shift) {
		p.slotUnlink(class, page)
		stats[class].total -= uint64(chunksContributedBySmallPage(shift))
		p.freePages(page, 1)
	}
}

func (p *Pool) freeExactChunk(idx uint32, inPage uint32, d *pageDescriptor) {
	h := p.header()
	shift := h.minShift + exactClassOf(h)
	chunkSize := uint32(1) << shift
	if inPage%chunkSize != 0 {
		p.diagWrongChunk(inPage)
		return
	}
	wasFull := isExactPageFull(d.payload)
	newBitmap, ok := freeExact(d.payload, inPage/chunkSize)
	if !ok {
		p.diagChunkAlreadyFree(inPage)
		return
	}
	p.maybePoison(idx*h.pageSize+h.dataBegin+inPage, chunkSize)
	d.payload = newBitmap

	class := exactClassOf(h)
	stats := statTable(p.region, h.statTableOff, h.numClasses)
	stats[class].used--

	page := pageIndexToRef(idx)
	if wasFull {
		p.slotPush(class, page)
	}
	if isExactPageEmpty(newBitmap) {
		p.slotUnlink(class, page)
		stats[class].total -= exactChunksPerPage
		p.freePages(page, 1)
	}
}

func (p *Pool) freeBigChunk(idx uint32, inPage uint32, d *pageDescriptor) {
	h := p.header()
	shift := bigShift(d.payload)
	chunkSize := uint32(1) << shift
	if inPage%chunkSize != 0 {
		p.diagWrongChunk(inPage)
		return
	}
	wasFull := isBigPageFull(d.payload)
	newPayload, ok := freeBig(d.payload, inPage/chunkSize)
	if !ok {
		p.diagChunkAlreadyFree(inPage)
		return
	}
	p.maybePoison(idx*h.pageSize+h.dataBegin+inPage, chunkSize)
	d.payload = newPayload

	class := shift - h.minShift
	stats := statTable(p.region, h.statTableOff, h.numClasses)
	stats[class].used--

	page := pageIndexToRef(idx)
	if wasFull {
		p.slotPush(class, page)
	}
	if isBigPageEmpty(newPayload) {
		p.slotUnlink(class, page)
		stats[class].total -= uint64(chunksPerPage(shift))
		p.freePages(page, 1)
	}
}

// exactClassOf is the single EXACT size class's index, fixed by shift ==
// exact_shift regardless of minShift.
func exactClassOf(h *header) uint32 {
	return sizeConsts.exactShift - h.minShift
}

func (p *Pool) maybePoison(byteOffset uint32, n uint32) {
	h := p.header()
	if h.poison == 0 {
		return
	}
	b := p.region[byteOffset : byteOffset+n]
	for i := range b {
		b[i] = 0xA5
	}
}
