package slabpool

import "unsafe"

// statEntry is one size class's lifetime counters (spec.md §3 "Stat table").
type statEntry struct {
	total uint64 // live chunks of this class carved out of dedicated pages
	used  uint64 // live allocated chunks
	reqs  uint64 // lifetime allocation requests
	fails uint64 // lifetime failures
}

const statEntrySize = uint32(unsafe.Sizeof(statEntry{}))

func statTable(region []byte, off uint32, n uint32) []statEntry {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*statEntry)(unsafe.Pointer(&region[off])), int(n))
}

// ClassStats is a snapshot of one size class's counters, safe to read after
// the call returns (Stats copies out from behind the pool's lock).
type ClassStats struct {
	ChunkSize uint32
	Total     uint64
	Used      uint64
	Requests  uint64
	Failures  uint64
}

// Stats is a point-in-time snapshot of the whole pool's bookkeeping.
type Stats struct {
	FreePages uint32
	Classes   []ClassStats
}

// Stats returns a snapshot of every size class's counters plus the current
// free-page count, acquiring the pool's lock for the duration of the read.
func (p *Pool) Stats() Stats {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.statsLocked()
}

func (p *Pool) statsLocked() Stats {
	h := p.header()
	st := statTable(p.region, h.statTableOff, h.numClasses)
	out := Stats{
		FreePages: h.freePageCount,
		Classes:   make([]ClassStats, len(st)),
	}
	for c, s := range st {
		out.Classes[c] = ClassStats{
			ChunkSize: uint32(1) << (h.minShift + uint32(c)),
			Total:     s.total,
			Used:      s.used,
			Requests:  s.reqs,
			Failures:  s.fails,
		}
	}
	return out
}
