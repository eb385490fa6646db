package slabpool

import "github.com/haoxu/shmslab/slablog"

// diagnostic routes one of spec.md §7's seven locally-reported error kinds
// through slablog, carrying this pool's log context. None of these return
// a Go error to the caller — allocate reports failure by returning NilPtr,
// free always returns silently, exactly as spec.md §7 specifies.

func (p *Pool) diagOutsideOfPool(offset uint32) {
	slablog.OutsideOfPool(p.logCtx, offset)
}

func (p *Pool) diagPageAlreadyFree(page uint32) {
	slablog.PageAlreadyFree(p.logCtx, page)
}

func (p *Pool) diagWrongPage(page uint32) {
	slablog.WrongPage(p.logCtx, page)
}

func (p *Pool) diagWrongChunk(offset uint32) {
	slablog.WrongChunk(p.logCtx, offset)
}

func (p *Pool) diagChunkAlreadyFree(offset uint32) {
	slablog.ChunkAlreadyFree(p.logCtx, offset)
}

func (p *Pool) diagPageIsBusy(class uint32) {
	slablog.PageIsBusy(p.logCtx, class)
}

func (p *Pool) diagNoMemory(pagesRequested uint32) {
	h := p.header()
	if h.logNoMem != 0 {
		slablog.NoMemory(p.logCtx, pagesRequested)
	}
}
