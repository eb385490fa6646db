package slabpool

// Ptr is a handle to an allocated chunk, expressed as a byte offset from
// the start of the region rather than a Go pointer: the same region
// re-mapped at a different virtual address in a different process still
// interprets a Ptr the same way. NilPtr is never a valid allocation (offset
// zero always lands inside the pool header).
type Ptr uint32

const NilPtr Ptr = 0

// Valid reports whether ptr is non-nil. It says nothing about whether ptr
// was actually returned by this pool.
func (ptr Ptr) Valid() bool { return ptr != NilPtr }

// Bytes returns the live chunk's bytes. size must be the size originally
// requested from Allocate/AllocateZeroed (or larger classes' chunk size);
// passing a mismatched size is a caller bug, not something this pool can
// detect from Bytes alone.
func (p *Pool) Bytes(ptr Ptr, size uint32) []byte {
	off := uint32(ptr)
	return p.region[off : off+size]
}
