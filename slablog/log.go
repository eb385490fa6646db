// Package slablog emits the pool's diagnostics (spec.md §7) as single
// structured log lines, each carrying the pool's log_ctx field, through the
// teacher's logging stack.
package slablog

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetOutput lets a caller (tests, cmd/slabdemo) redirect where diagnostics
// go; by default logrus writes to stderr.
func SetOutput(w interface {
	Write([]byte) (int, error)
}) {
	log.SetOutput(w)
}

func withCtx(logCtx string) *logrus.Entry {
	return log.WithField("log_ctx", logCtx)
}

// OutsideOfPool: free called with an address not in [data_begin, data_end).
func OutsideOfPool(logCtx string, offset uint32) {
	withCtx(logCtx).WithField("offset", offset).Error("slab free: pointer outside of pool")
}

// PageAlreadyFree: multi-page free whose head descriptor lacks PAGE_START.
func PageAlreadyFree(logCtx string, page uint32) {
	withCtx(logCtx).WithField("page", page).Error("slab free: page already free")
}

// WrongPage: multi-page free whose head descriptor equals BUSY.
func WrongPage(logCtx string, page uint32) {
	withCtx(logCtx).WithField("page", page).Error("slab free: pointer into the middle of a page run")
}

// WrongChunk: small/exact/big free whose address is not chunk-aligned.
func WrongChunk(logCtx string, offset uint32) {
	withCtx(logCtx).WithField("offset", offset).Error("slab free: pointer is not chunk-aligned")
}

// ChunkAlreadyFree: bit in the bitmap was already zero (double free).
func ChunkAlreadyFree(logCtx string, offset uint32) {
	withCtx(logCtx).WithField("offset", offset).Error("slab free: chunk already free")
}

// PageIsBusy: allocate reached a slot whose head page's bitmap scan found
// no zero bit — an invariant violation, always a bug in this package.
func PageIsBusy(logCtx string, class uint32) {
	withCtx(logCtx).WithField("class", class).Error("slab allocate: slot head page has no free chunk")
}

var noMemLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

const noMemInterval = time.Second

// NoMemory is alloc_pages' rate-limited high-severity line: at most one per
// log_ctx per noMemInterval, gated by the caller's log_nomem flag.
func NoMemory(logCtx string, pagesRequested uint32) {
	noMemLimiter.mu.Lock()
	if noMemLimiter.last == nil {
		noMemLimiter.last = make(map[string]time.Time)
	}
	now := time.Now()
	if last, ok := noMemLimiter.last[logCtx]; ok && now.Sub(last) < noMemInterval {
		noMemLimiter.mu.Unlock()
		return
	}
	noMemLimiter.last[logCtx] = now
	noMemLimiter.mu.Unlock()

	withCtx(logCtx).WithField("pages_requested", pagesRequested).Warn("slab pool out of memory")
}
