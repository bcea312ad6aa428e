package pagearena

import "encoding/binary"

// Verification layout. Every allocation is preceded by a header:
//
//	[0:4]  recorded size, saturating at maxTracked
//	[4:8]  release counter
//	[8:16] head guard (allocGuard)
//
// and followed by an 8-byte tail guard unless its size saturated. Each page
// carries pageGuard in its first and last 8 bytes.
const (
	headerSize    = 16
	guardSize     = 8
	pageGuardSize = 8

	allocGuard uint64 = 0x5aa5c33cf00f9669
	pageGuard         = ^allocGuard

	poisonByte = 0xdd
)

// verifyStrategy decorates the bump allocator with headers, guards and
// release counting.
type verifyStrategy struct {
	next       bumpStrategy
	maxTracked int
}

// saturated reports whether a request is too large for its size to be
// recorded exactly. Such blocks get no tail guard, so overruns past them go
// undetected.
func (v *verifyStrategy) saturated(n int) bool {
	return n >= v.maxTracked
}

func (v *verifyStrategy) rawSize(n int) int {
	if v.saturated(n) {
		return headerSize + n
	}
	return headerSize + n + guardSize
}

func (v *verifyStrategy) allocate(a *Arena, n int) (Block, error) {
	// Saturated blocks always get a page of their own; the teardown walk
	// cannot compute their extent from the header.
	raw, err := v.next.carve(a, request{size: v.rawSize(n), dedicated: v.saturated(n)})
	if err != nil {
		return Block{}, err
	}

	buf := raw.page.buf
	putHeader(buf[raw.off:], uint32(min(n, v.maxTracked)), 0)
	usable := raw.off + headerSize
	if !v.saturated(n) {
		binary.LittleEndian.PutUint64(buf[usable+n:], allocGuard)
	}
	return Block{page: raw.page, off: usable, n: n}, nil
}

func (v *verifyStrategy) release(a *Arena, b Block) {
	p := b.page
	if p == nil || p.owner != a || b.off < p.start+headerSize || b.off+b.n > p.used {
		f := &Fault{Kind: FaultForeignBlock, Offset: b.off, Size: b.n}
		if p != nil {
			f = p.fault(FaultForeignBlock, b.off, b.n, 0)
		}
		a.report(f)
		return
	}

	h := p.buf[b.header():]
	size, releases := readHeader(h)
	if guardAt(h, 8) != allocGuard || int(size) != min(b.n, v.maxTracked) {
		a.report(p.fault(FaultHeadGuard, b.off, int(size), int(releases)))
		return
	}

	releases++
	binary.LittleEndian.PutUint32(h[4:], releases)
	if releases > 1 {
		a.report(p.fault(FaultDoubleRelease, b.off, b.n, int(releases)))
		return
	}
	if !v.saturated(b.n) && guardAt(p.buf, b.off+b.n) != allocGuard {
		a.report(p.fault(FaultTailGuard, b.off, b.n, int(releases)))
	}

	usable := p.buf[b.off : b.off+b.n]
	for i := range usable {
		usable[i] = poisonByte
	}
}

func (v *verifyStrategy) initPage(p *page) {
	binary.LittleEndian.PutUint64(p.buf, pageGuard)
	binary.LittleEndian.PutUint64(p.buf[len(p.buf)-pageGuardSize:], pageGuard)
	v.next.initPage(p)
}

// verifyPage walks every allocation in address order, from the page start to
// its high-water mark.
func (v *verifyStrategy) verifyPage(p *page) []*Fault {
	var faults []*Fault
	if guardAt(p.buf, 0) != pageGuard || guardAt(p.buf, len(p.buf)-pageGuardSize) != pageGuard {
		faults = append(faults, p.fault(FaultPageGuard, 0, len(p.buf), 0))
	}

	for off := p.start; off < p.used; {
		h := p.buf[off:]
		usable := off + headerSize
		size, releases := readHeader(h)
		n := int(size)

		var step int
		if v.saturated(n) {
			step = p.used - off
		} else {
			step = span(v.rawSize(n))
		}
		if guardAt(h, 8) != allocGuard || off+step > p.used {
			// The header can't be trusted, and neither can anything after it.
			faults = append(faults, p.fault(FaultHeadGuard, usable, n, int(releases)))
			break
		}

		switch {
		case releases == 0:
			faults = append(faults, p.fault(FaultLeak, usable, n, 0))
		case releases > 1:
			faults = append(faults, p.fault(FaultDoubleRelease, usable, n, int(releases)))
		case !poisoned(p.buf[usable : usable+n]):
			faults = append(faults, p.fault(FaultUseAfterRelease, usable, n, 1))
		}
		if !v.saturated(n) && guardAt(p.buf, usable+n) != allocGuard {
			faults = append(faults, p.fault(FaultTailGuard, usable, n, int(releases)))
		}
		off += step
	}
	return append(faults, v.next.verifyPage(p)...)
}

func (v *verifyStrategy) pageGuard() int {
	return pageGuardSize
}

func putHeader(h []byte, size, releases uint32) {
	binary.LittleEndian.PutUint32(h[0:], size)
	binary.LittleEndian.PutUint32(h[4:], releases)
	binary.LittleEndian.PutUint64(h[8:], allocGuard)
}

func readHeader(h []byte) (size, releases uint32) {
	return binary.LittleEndian.Uint32(h[0:]), binary.LittleEndian.Uint32(h[4:])
}

func guardAt(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off:])
}

func poisoned(b []byte) bool {
	for _, c := range b {
		if c != poisonByte {
			return false
		}
	}
	return true
}
