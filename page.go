package pagearena

import "unsafe"

// align is the natural alignment every allocation is rounded to.
const align = int(unsafe.Sizeof(uintptr(0)))

// page is one region obtained from the PageSource. Pages form a singly linked
// list, most recent first, owned by the arena until Destroy.
type page struct {
	next  *page
	owner *Arena
	buf   []byte
	seq   uint64

	start int // first offset available to allocations
	end   int // allocation ceiling
	used  int // high-water mark: furthest offset ever bumped to

	orphan bool
}

func (p *page) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p.buf)))
}

func (p *page) fault(kind FaultKind, off, size, releases int) *Fault {
	return &Fault{
		Kind:     kind,
		Page:     p.seq,
		PageBase: p.base(),
		Offset:   off,
		Size:     size,
		Releases: releases,
	}
}

// alignUp rounds n up to pointer alignment.
func alignUp(n int) int {
	const mask = align - 1
	return (n + mask) &^ mask
}

// span is the number of bytes the bump cursor advances for a request of n
// bytes. Zero-byte requests still consume one alignment unit so that every
// block has a distinct address.
func span(n int) int {
	if n == 0 {
		return align
	}
	return alignUp(n)
}
