package pagearena

// request is what a strategy asks the page manager for.
type request struct {
	size      int
	dedicated bool // place on an orphan page regardless of size
}

// strategy is the allocate/release contract shared by the plain bump
// allocator and the verifying decorator around it.
type strategy interface {
	allocate(a *Arena, n int) (Block, error)
	release(a *Arena, b Block)
	initPage(p *page)
	verifyPage(p *page) []*Fault
	pageGuard() int
}

// bumpStrategy serves requests straight from the current page.
type bumpStrategy struct{}

func (s bumpStrategy) allocate(a *Arena, n int) (Block, error) {
	return s.carve(a, request{size: n})
}

// carve is the fast path: no search, no free list.
func (bumpStrategy) carve(a *Arena, r request) (Block, error) {
	need := span(r.size)
	if !r.dedicated && a.free+need <= a.barrier {
		return a.serve(need, r.size), nil
	}
	return a.growAndAllocate(r, need)
}

func (bumpStrategy) release(*Arena, Block) {}

func (bumpStrategy) initPage(*page) {}

func (bumpStrategy) verifyPage(*page) []*Fault { return nil }

func (bumpStrategy) pageGuard() int { return 0 }
