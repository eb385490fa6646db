package slabpool

// freelist.go manages roleFree descriptors only: the doubly-linked list of
// free page runs, and the two operations that walk it — allocPages (find or
// split a run of at least n pages) and freePages (insert a newly freed run,
// coalescing with free neighbors). A page's role is what distinguishes a
// free run from a live multi-page allocation (roleAlloc, see alloc.go) —
// coalescing only ever follows roleFree neighbors. Slot-list bookkeeping for
// partially-used pages lives in slot.go and is the caller's responsibility
// (see alloc.go / free.go).

// freeListUnlink removes a run (identified by its head page) from the
// free-page list.
func (p *Pool) freeListUnlink(descs []pageDescriptor, head pageRef) {
	h := p.header()
	d := &descs[pageRefToIndex(head)]
	if d.prev != nilRef {
		descs[pageRefToIndex(d.prev)].next = d.next
	} else {
		h.freeListHead = d.next
	}
	if d.next != nilRef {
		descs[pageRefToIndex(d.next)].prev = d.prev
	}
}

// freeListPush installs a run (head page, n pages long) as the new head of
// the free-page list.
func (p *Pool) freeListPush(descs []pageDescriptor, head pageRef, n uint32) {
	h := p.header()
	d := &descs[pageRefToIndex(head)]
	d.role = roleFree
	d.payload = uint64(n)
	d.prev = nilRef
	d.next = h.freeListHead
	if d.next != nilRef {
		descs[pageRefToIndex(d.next)].prev = head
	}
	if n > 1 {
		tail := &descs[pageRefToIndex(head)+n-1]
		tail.role = roleFree
		tail.payload = busyPayload
		tail.prev = head
		tail.next = nilRef
	}
	h.freeListHead = head
}

// allocPages finds the first free run of at least n pages, splits off the
// leading n pages if the run is longer, and returns the head page of the
// allocated span. Returns nilRef if no run is long enough (spec.md §4.B
// "first-fit over the free-page list").
func (p *Pool) allocPages(n uint32) pageRef {
	h := p.header()
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)

	cur := h.freeListHead
	for cur != nilRef {
		d := &descs[pageRefToIndex(cur)]
		runLen := uint32(d.payload)
		next := d.next

		if runLen >= n {
			p.freeListUnlink(descs, cur)
			if runLen > n {
				remainder := pageRef(pageRefToIndex(cur) + n + 1)
				p.freeListPush(descs, remainder, runLen-n)
			}
			h.freePageCount -= n
			return cur
		}
		cur = next
	}
	return nilRef
}

// freePages returns an n-page run starting at head to the free-page list,
// coalescing with the immediately preceding and/or following run when
// either is itself free. Mirrors ngx_slab_free_pages' neighbor checks.
func (p *Pool) freePages(head pageRef, n uint32) {
	h := p.header()
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)

	freed := n // pages actually newly returned, excluding already-free neighbors merged in below
	idx := pageRefToIndex(head)

	// Coalesce backward: the page immediately before this run can only be
	// the tail (run length > 1) or head (run length 1) of an adjacent
	// free run — never a true interior page, since interior pages of any
	// run are never adjacent to the start of a different run.
	if idx > 0 {
		joinIdx := idx - 1
		join := &descs[joinIdx]
		if join.role == roleFree {
			var prevHead pageRef
			if join.payload == busyPayload {
				prevHead = join.prev
			} else {
				prevHead = pageIndexToRef(joinIdx)
			}
			prevLen := uint32(descs[pageRefToIndex(prevHead)].payload)
			p.freeListUnlink(descs, prevHead)
			head = prevHead
			idx = pageRefToIndex(head)
			n += prevLen
		}
	}

	// Coalesce forward. The page immediately after this run, if free, is
	// always the head of whatever free run starts there — it cannot be a
	// tail, since the range just freed was not itself free a moment ago,
	// so no free run could have extended backward across it.
	if idx+n < h.numPages {
		nextIdx := idx + n
		next := &descs[nextIdx]
		if next.role == roleFree {
			nextHead := pageIndexToRef(nextIdx)
			nextLen := uint32(next.payload)
			p.freeListUnlink(descs, nextHead)
			n += nextLen
		}
	}

	p.freeListPush(descs, head, n)
	h.freePageCount += freed
}
