package slabpool

import "unsafe"

// slotEntry is one size class's free list head (spec.md §3 "Slot table"):
// the pageRef of the first page currently offering free chunks of that
// class, or nilRef if no page does.
type slotEntry struct {
	head pageRef
	_    uint32 // padding, keeps the array 8-byte strided
}

const slotEntrySize = uint32(unsafe.Sizeof(slotEntry{}))

func slotTable(region []byte, off uint32, n uint32) []slotEntry {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*slotEntry)(unsafe.Pointer(&region[off])), int(n))
}

// slotPush makes page the new head of class c's slot list. Used whenever a
// page starts (or resumes) offering free chunks of that class: a brand new
// dedicated page, or a page that just went from full back to partial.
func (p *Pool) slotPush(c uint32, page pageRef) {
	h := p.header()
	slots := slotTable(p.region, h.slotTableOff, h.numClasses)
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)

	d := &descs[pageRefToIndex(page)]
	d.prev = nilRef
	d.next = slots[c].head
	if d.next != nilRef {
		descs[pageRefToIndex(d.next)].prev = page
	}
	slots[c].head = page
}

// slotUnlink removes page from class c's slot list, wherever in the list it
// currently sits. Callers use this both when a page becomes completely full
// (no more chunks of this class to offer) and, defensively, when a page is
// about to be handed back to the free-page list (it may still be linked
// into a slot list up to the moment its last chunk is freed).
func (p *Pool) slotUnlink(c uint32, page pageRef) {
	h := p.header()
	slots := slotTable(p.region, h.slotTableOff, h.numClasses)
	descs := descriptorTable(p.region, h.descTableOff, h.numPages)

	d := &descs[pageRefToIndex(page)]
	if d.prev != nilRef {
		descs[pageRefToIndex(d.prev)].next = d.next
	} else if slots[c].head == page {
		slots[c].head = d.next
	}
	if d.next != nilRef {
		descs[pageRefToIndex(d.next)].prev = d.prev
	}
	d.prev = nilRef
	d.next = nilRef
}

// slotHead reports the current head of class c's slot list, or nilRef.
func (p *Pool) slotHead(c uint32) pageRef {
	h := p.header()
	return slotTable(p.region, h.slotTableOff, h.numClasses)[c].head
}
