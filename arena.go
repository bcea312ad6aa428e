package pagearena

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
)

// maxAllocSize leaves headroom for rounding and headers without overflow.
const maxAllocSize = math.MaxInt >> 2

// Arena hands out blocks from its current page by advancing a cursor and
// frees all pages at once in Destroy. Not goroutine-safe; use Locked for
// concurrent producers.
type Arena struct {
	opts     Options
	strategy strategy
	logger   *slog.Logger
	onFault  func(*Fault)

	pages   *page // head of the page list, most recent first
	cur     *page // bump target; orphan pages never become current
	free    int   // next offset to hand out in cur
	barrier int   // first offset in cur not usable
	guard   int   // bytes reserved at each end of a page
	seq     uint64

	stats     Stats
	destroyed bool
}

// New creates an arena with no pages. The first page is acquired by the
// first Allocate call.
func New(opts Options) (*Arena, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	var s strategy = bumpStrategy{}
	if o.Mode == ModeVerify {
		s = &verifyStrategy{next: bumpStrategy{}, maxTracked: o.MaxTrackedSize}
	}

	a := &Arena{
		opts:     o,
		strategy: s,
		logger:   o.Logger,
		onFault:  o.OnFault,
		guard:    s.pageGuard(),
	}
	if a.onFault == nil {
		a.onFault = panicOnFault
	}
	return a, nil
}

// Mode returns the resolved allocation mode.
func (a *Arena) Mode() Mode { return a.opts.Mode }

// Allocate returns a block of n bytes that stays valid until Destroy. The
// block's memory is not zeroed. Zero-byte requests are legal.
//
// If the PageSource cannot provide a page, Allocate returns an error
// wrapping ErrOutOfMemory and the arena is unchanged.
func (a *Arena) Allocate(n int) (Block, error) {
	a.panicIfDestroyed()
	if n < 0 || n > maxAllocSize {
		return Block{}, errors.Wrapf(ErrInvalidSize, "size %d", n)
	}

	b, err := a.strategy.allocate(a, n)
	if err != nil {
		return Block{}, err
	}
	if a.opts.Stats {
		a.stats.Requests++
		a.stats.BytesRequested += uint64(n)
	}
	return b, nil
}

// Release marks b as no longer used. It never reclaims memory. In verify mode
// it checks the block's guards, counts the release and poisons the bytes; in
// fast mode it does nothing.
func (a *Arena) Release(b Block) {
	a.panicIfDestroyed()
	a.strategy.release(a, b)
}

// Destroy returns every page to the PageSource in one pass over the page
// list. In verify mode each page is checked immediately before it is
// returned; faults go to the fault handler and, if it returns, are joined
// into the returned error. The arena is unusable afterwards.
//
// A page is unlinked and returned before its faults are reported, so if the
// handler panics and the caller recovers, calling Destroy again resumes with
// the next page.
func (a *Arena) Destroy() error {
	a.panicIfDestroyed()
	a.cur = nil
	a.free, a.barrier = 0, 0

	var errs []error
	for a.pages != nil {
		p := a.pages
		faults := a.strategy.verifyPage(p)

		a.pages = p.next
		if err := a.opts.Source.Release(p.buf); err != nil {
			errs = append(errs, errors.Wrapf(err, "release page %d", p.seq))
		}
		a.logger.Debug("arena: page freed", "page", p.seq, "size", len(p.buf))
		p.next, p.buf, p.owner = nil, nil, nil

		for _, f := range faults {
			a.report(f)
			errs = append(errs, f)
		}
	}

	a.destroyed = true
	return errors.Join(errs...)
}

// growAndAllocate is the slow path, taken when the current page cannot hold
// need bytes.
func (a *Arena) growAndAllocate(r request, need int) (Block, error) {
	if a.pages == nil {
		p, err := a.newPage(a.opts.FirstPageSize, false)
		if err != nil {
			return Block{}, err
		}
		a.adopt(p)
		if !r.dedicated && a.free+need <= a.barrier {
			return a.serve(need, r.size), nil
		}
	}

	size := need + 2*a.guard
	if r.dedicated || size > a.opts.IdealPageSize/2 {
		p, err := a.newPage(size, true)
		if err != nil {
			return Block{}, err
		}
		off := p.start
		p.used = off + need
		return Block{page: p, off: off, n: r.size}, nil
	}

	p, err := a.newPage(a.opts.IdealPageSize, false)
	if err != nil {
		return Block{}, err
	}
	a.adopt(p)
	return a.serve(need, r.size), nil
}

// newPage acquires a page and links it as the new head of the page list.
func (a *Arena) newPage(size int, orphan bool) (*page, error) {
	buf, err := a.opts.Source.Acquire(size)
	if err != nil {
		return nil, errors.Wrapf(err, "acquire page of %d bytes", size)
	}

	a.seq++
	p := &page{
		next:   a.pages,
		owner:  a,
		buf:    buf,
		seq:    a.seq,
		start:  a.guard,
		end:    len(buf) - a.guard,
		orphan: orphan,
	}
	p.used = p.start
	a.strategy.initPage(p)
	a.pages = p

	if a.opts.Stats {
		a.stats.Pages++
		a.stats.BytesAllocated += uint64(p.end - p.start)
		if orphan {
			a.stats.Orphans++
		}
	}
	a.logger.Debug("arena: new page", "page", p.seq, "size", len(buf), "orphan", orphan)
	return p, nil
}

// adopt makes p the bump target.
func (a *Arena) adopt(p *page) {
	a.cur = p
	a.free = p.start
	a.barrier = p.end
}

// serve hands out need bytes at the cursor of the current page. The caller
// has checked that they fit.
func (a *Arena) serve(need, n int) Block {
	off := a.free
	a.free += need
	a.cur.used = a.free
	return Block{page: a.cur, off: off, n: n}
}

func (a *Arena) report(f *Fault) {
	a.logger.Error("arena: memory fault", "fault", f)
	a.onFault(f)
}

// panicIfDestroyed panics if the arena has been destroyed.
func (a *Arena) panicIfDestroyed() {
	if a.destroyed {
		panic("arena: use after Destroy()")
	}
}
