package slabpool

// allocateLocked implements spec.md §4.E allocate without acquiring the
// pool's lock; callers that already hold it (AllocateLocked, or internal
// callers) use this directly.
func (p *Pool) allocateLocked(size uint32) Ptr {
	h := p.header()

	multiPage, pagesNeeded, shift, class := classify(size, h.minShift)
	if multiPage {
		return p.allocMultiPage(pagesNeeded)
	}

	slots := slotTable(p.region, h.slotTableOff, h.numClasses)
	stats := statTable(p.region, h.statTableOff, h.numClasses)
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)

	stats[class].reqs++

	head := slots[class].head
	if head == nilRef {
		page := p.allocPages(1)
		if page == nilRef {
			p.diagNoMemory(1)
			stats[class].fails++
			return NilPtr
		}
		p.initDedicatedPage(page, shift, class)
		p.slotPush(class, page)
		head = page
	}

	idx := pageRefToIndex(head)
	data := p.pageData(idx)
	d := &descs[idx]

	var offset uint32
	var ok bool
	switch regimeFor(shift) {
	case regimeSmall:
		offset, ok = allocSmall(data, shift)
		if ok && isSmallPageFull(data, shift) {
			p.slotUnlink(class, head)
		}
	case regimeExact:
		var newBitmap uint64
		newBitmap, offset, ok = allocExact(d.payload)
		if ok {
			offset <<= h.minShift + class
			d.payload = newBitmap
			if isExactPageFull(newBitmap) {
				p.slotUnlink(class, head)
			}
		}
	case regimeBig:
		var newPayload uint64
		var chunk uint32
		newPayload, chunk, ok = allocBig(d.payload)
		if ok {
			offset = chunk << shift
			d.payload = newPayload
			if isBigPageFull(newPayload) {
				p.slotUnlink(class, head)
			}
		}
	}

	if !ok {
		p.diagPageIsBusy(class)
		stats[class].fails++
		return NilPtr
	}

	stats[class].used++
	return Ptr(p.pageOffset(idx) + offset)
}

// allocateZeroedLocked is allocateLocked followed by zeroing the returned
// bytes, without releasing and reacquiring the lock in between.
func (p *Pool) allocateZeroedLocked(size uint32) Ptr {
	ptr := p.allocateLocked(size)
	if !ptr.Valid() {
		return ptr
	}
	b := p.Bytes(ptr, size)
	for i := range b {
		b[i] = 0
	}
	return ptr
}

func (p *Pool) allocMultiPage(n uint32) Ptr {
	head := p.allocPages(n)
	if head == nilRef {
		p.diagNoMemory(n)
		return NilPtr
	}
	h := p.header()
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)
	idx := pageRefToIndex(head)

	descs[idx] = pageDescriptor{role: roleAlloc, payload: uint64(n) | pageStartBit, prev: nilRef, next: nilRef}
	for i := uint32(1); i < n; i++ {
		descs[idx+i] = pageDescriptor{role: roleAlloc, payload: busyPayload, prev: nilRef, next: nilRef}
	}

	return Ptr(p.pageOffset(idx))
}

// initDedicatedPage stamps a freshly taken page as the first page of size
// class c, according to its regime, and records it contributing to
// stat[c].total (spec.md §4.E step 5).
func (p *Pool) initDedicatedPage(page pageRef, shift uint32, class uint32) {
	h := p.header()
	stats := statTable(p.region, h.statTableOff, h.numClasses)

	switch regimeFor(shift) {
	case regimeSmall:
		p.initSmallPage(page, shift)
		stats[class].total += uint64(chunksContributedBySmallPage(shift))
	case regimeExact:
		p.initExactPage(page)
		stats[class].total += exactChunksPerPage
	case regimeBig:
		p.initBigPage(page, shift)
		stats[class].total += uint64(chunksPerPage(shift))
	}
}
