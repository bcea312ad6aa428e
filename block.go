package pagearena

import "unsafe"

// Block is a handle to memory handed out by an Arena. It names the page and
// the offset of the usable bytes; in verify mode the allocation header lives
// at a fixed offset before them in the same page.
//
// A Block is a view, not an owner. Its memory stays valid until the arena is
// destroyed.
type Block struct {
	page *page
	off  int
	n    int
}

// Len returns the requested size of the block.
func (b Block) Len() int { return b.n }

// IsZero reports whether b is the zero Block.
func (b Block) IsZero() bool { return b.page == nil }

// Bytes returns the usable bytes. The slice's capacity equals its length, so
// appending to it never writes into neighbouring blocks.
func (b Block) Bytes() []byte {
	if b.page == nil {
		return nil
	}
	return b.page.buf[b.off : b.off+b.n : b.off+b.n]
}

// Pointer returns the address of the first usable byte. It is valid for
// zero-length blocks too.
func (b Block) Pointer() unsafe.Pointer {
	if b.page == nil {
		return nil
	}
	return unsafe.Pointer(&b.page.buf[b.off])
}

// Addr returns the address of the first usable byte as an integer, for
// logging and comparisons.
func (b Block) Addr() uintptr {
	if b.page == nil {
		return 0
	}
	return b.page.base() + uintptr(b.off)
}

// Page returns the sequence number of the page holding the block. Pages are
// numbered from 1 in creation order.
func (b Block) Page() uint64 {
	if b.page == nil {
		return 0
	}
	return b.page.seq
}

// header returns the offset of the verification header.
func (b Block) header() int {
	return b.off - headerSize
}
