package slabpool

import (
	"unsafe"

	"github.com/haoxu/shmslab/ipcmutex"
	"github.com/pkg/errors"
)

const poolMagic = uint32(0x534c4142) // "SLAB"
const poolVersion = uint32(1)

// header is the pool's region-resident control block (spec.md §3 "Pool
// header"). It is a plain-old-data struct aliased directly over the start
// of the region via unsafe.Pointer, so every field a re-attaching process
// needs survives independently of where the region happens to be mapped.
type header struct {
	magic     uint32
	version   uint32
	minShift  uint32
	pageShift uint32
	pageSize  uint32

	numClasses uint32
	numPages   uint32

	slotTableOff uint32
	statTableOff uint32
	descTableOff uint32
	dataBegin    uint32
	dataEnd      uint32

	freeListHead  pageRef
	freePageCount uint32

	logNoMem uint32 // bool
	poison   uint32 // bool

	lockWord int32 // futex word for ipcmutex.FutexMutex; unused by Mutex

	initialized uint32 // 0 until pool_init has completed

	logCtxLen uint32
	logCtx    [48]byte
}

const headerSize = uint32(unsafe.Sizeof(header{}))

// Config carries the tunables spec.md's pool_init needs from the caller.
// Config is never persisted itself — only the fields the header actually
// stores survive a re-attach; a re-attaching process doesn't need to supply
// Config again (Attach ignores it).
type Config struct {
	// PageSize is the system page size this pool carves the region into.
	// Must be a power of two. InitSizeConstants is called with this value
	// the first time any pool in the process is created.
	PageSize uint32
	// MinShift sets the minimum chunk size to 2^MinShift bytes. Defaults
	// to 3 (8-byte minimum chunk) when zero.
	MinShift uint32
	// LogNoMem enables the rate-limited high-severity "no memory" log
	// line from alloc_pages, beyond the per-call alert diagnostics.
	LogNoMem bool
	// Poison causes Free to overwrite released bytes with 0xA5, matching
	// ngx_slab_junk under NGX_DEBUG_MALLOC.
	Poison bool
	// LogCtx is a caller-supplied suffix appended to every diagnostic
	// this pool emits (spec.md §4.G "log_context").
	LogCtx string
	// Locker guards every mutating operation. Defaults to an in-process
	// ipcmutex.Mutex; pass an ipcmutex.NewFutexMutex bound to the pool's
	// lockWord to share the pool safely across processes.
	Locker ipcmutex.Locker
}

// Pool is the allocator's process-local handle onto a region. Multiple
// Pool values in the same or different processes may point at the same
// underlying bytes; all synchronization happens through Locker.
type Pool struct {
	region []byte
	locker ipcmutex.Locker
	logCtx string
}

func (p *Pool) header() *header {
	return (*header)(unsafe.Pointer(&p.region[0]))
}

// pageData returns the pageSize-byte data slice for page index idx (0-based).
func (p *Pool) pageData(idx uint32) []byte {
	h := p.header()
	start := h.dataBegin + idx*h.pageSize
	return p.region[start : start+h.pageSize]
}

// pageOffset returns the byte offset of page index idx's data from the start
// of the region, used to turn a page+in-page-offset pair into a Ptr.
func (p *Pool) pageOffset(idx uint32) uint32 {
	h := p.header()
	return h.dataBegin + idx*h.pageSize
}

// LockWord exposes the pool's region-resident futex word, for constructing
// an ipcmutex.FutexMutex bound to this pool from a second process. Not
// meaningful to any Locker other than FutexMutex.
func (p *Pool) LockWord() *int32 {
	return &p.header().lockWord
}

// layout is the result of carving Config.PageSize pages, a slot table, and
// a stat table out of a region of the given length, mirroring ngx_slab_init.
type layout struct {
	pageShift    uint32
	numClasses   uint32
	slotTableOff uint32
	statTableOff uint32
	descTableOff uint32
	dataBegin    uint32
	numPages     uint32
	dataEnd      uint32
}

func computeLayout(regionLen int, pageSize, minShift uint32) (layout, error) {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		return layout{}, errors.Errorf("slabpool: page size %d is not a power of two", pageSize)
	}
	pageShift := uint32(0)
	for (uint32(1) << pageShift) != pageSize {
		pageShift++
	}
	if minShift >= pageShift {
		return layout{}, errors.Errorf("slabpool: min shift %d must be below page shift %d", minShift, pageShift)
	}

	numClasses := numClassesFor(pageShift, minShift)

	slotTableOff := headerSize
	slotTableSize := numClasses * slotEntrySize
	statTableOff := slotTableOff + slotTableSize
	statTableSize := numClasses * statEntrySize
	descTableOff := statTableOff + statTableSize

	remaining := uint32(regionLen) - descTableOff
	numPages := remaining / (pageSize + pageDescriptorSize)

	dataBegin := alignUp(descTableOff+numPages*pageDescriptorSize, pageSize)

	// A descriptor table sized for numPages pages may leave slightly less
	// than numPages*pageSize bytes once dataBegin is page-aligned; shrink
	// numPages to what actually fits, same correction ngx_slab_init makes.
	fitPages := (uint32(regionLen) - dataBegin) / pageSize
	if fitPages < numPages {
		numPages = fitPages
	}

	return layout{
		pageShift:    pageShift,
		numClasses:   numClasses,
		slotTableOff: slotTableOff,
		statTableOff: statTableOff,
		descTableOff: descTableOff,
		dataBegin:    dataBegin,
		numPages:     numPages,
		dataEnd:      dataBegin + numPages*pageSize,
	}, nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// NewPool lays out a freshly mapped region and initializes it: slot table,
// stat table, descriptor table, and a single free-page run covering every
// data page (spec.md §6 pool_init). The region must not already hold an
// initialized pool — use Attach for that.
func NewPool(region []byte, cfg Config) (*Pool, error) {
	if cfg.PageSize == 0 {
		cfg.PageSize = 4096
	}
	if cfg.MinShift == 0 {
		cfg.MinShift = 3
	}
	InitSizeConstants(cfg.PageSize)

	lo, err := computeLayout(len(region), cfg.PageSize, cfg.MinShift)
	if err != nil {
		return nil, err
	}
	if lo.numPages == 0 {
		return nil, errors.Errorf("slabpool: region too small for even one data page")
	}

	p := &Pool{region: region, logCtx: cfg.LogCtx}
	h := p.header()
	*h = header{
		magic:         poolMagic,
		version:       poolVersion,
		minShift:      cfg.MinShift,
		pageShift:     lo.pageShift,
		pageSize:      cfg.PageSize,
		numClasses:    lo.numClasses,
		numPages:      lo.numPages,
		slotTableOff:  lo.slotTableOff,
		statTableOff:  lo.statTableOff,
		descTableOff:  lo.descTableOff,
		dataBegin:     lo.dataBegin,
		dataEnd:       lo.dataEnd,
		freeListHead:  pageIndexToRef(0),
		freePageCount: lo.numPages,
		initialized:   1,
	}
	if cfg.LogNoMem {
		h.logNoMem = 1
	}
	if cfg.Poison {
		h.poison = 1
	}
	setLogCtx(h, cfg.LogCtx)

	for i := range slotTable(region, lo.slotTableOff, lo.numClasses) {
		slotTable(region, lo.slotTableOff, lo.numClasses)[i] = slotEntry{head: nilRef}
	}
	statEntries := statTable(region, lo.statTableOff, lo.numClasses)
	for i := range statEntries {
		statEntries[i] = statEntry{}
	}

	descs := descriptorTable(region, lo.descTableOff, lo.numPages)
	for i := range descs {
		descs[i] = pageDescriptor{}
	}
	// One run covering every data page, installed as the sole free-list
	// entry (spec.md §6 pool_init: "initializes free list with one run
	// covering every data page").
	descs[0] = pageDescriptor{role: roleFree, payload: uint64(lo.numPages), prev: nilRef, next: nilRef}
	if lo.numPages > 1 {
		descs[lo.numPages-1] = pageDescriptor{role: roleFree, payload: busyPayload, prev: pageIndexToRef(0), next: nilRef}
	}

	p.locker = cfg.Locker
	if p.locker == nil {
		p.locker = ipcmutex.NewMutex()
	}
	return p, nil
}

// Attach re-opens a region that already holds an initialized pool. No
// layout work happens: every field the process needs is read back from the
// header, and no pointer inside the region depends on where it's mapped.
func Attach(region []byte, locker ipcmutex.Locker, logCtx string) (*Pool, error) {
	if len(region) < int(headerSize) {
		return nil, errors.Errorf("slabpool: region too small to hold a pool header")
	}
	p := &Pool{region: region, logCtx: logCtx}
	h := p.header()
	if h.magic != poolMagic {
		return nil, errors.Errorf("slabpool: region does not contain a slab pool (bad magic)")
	}
	if h.version != poolVersion {
		return nil, errors.Errorf("slabpool: region holds pool version %d, this code understands %d", h.version, poolVersion)
	}
	if h.initialized == 0 {
		return nil, errors.Errorf("slabpool: region's pool was never fully initialized")
	}
	InitSizeConstants(h.pageSize)
	if logCtx == "" {
		p.logCtx = string(h.logCtx[:h.logCtxLen])
	}
	p.locker = locker
	if p.locker == nil {
		p.locker = ipcmutex.NewMutex()
	}
	return p, nil
}

func setLogCtx(h *header, s string) {
	n := copy(h.logCtx[:], s)
	h.logCtxLen = uint32(n)
}
