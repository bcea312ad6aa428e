package pagearena

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// The helpers below place typed values in arena memory. The garbage collector
// does not scan arena pages, so T must not contain Go pointers (no strings,
// slices, maps, interfaces or pointers) unless whatever they point at is
// itself arena memory or kept alive elsewhere.
//
// Each helper returns the Block backing the value so that it can be passed to
// Release in verify mode.

// Alloc returns a pointer to a zeroed T stored inside the arena.
func Alloc[T any](a *Arena) (*T, Block, error) {
	p, b, err := AllocUninitialized[T](a)
	if err != nil {
		return nil, Block{}, err
	}
	clear(b.Bytes())
	return p, b, nil
}

// AllocUninitialized returns a *T located in the arena without zeroing memory.
// This is faster than Alloc but the memory contents are undefined.
func AllocUninitialized[T any](a *Arena) (*T, Block, error) {
	var zero T
	checkAlign(unsafe.Alignof(zero))
	b, err := a.Allocate(int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, Block{}, err
	}
	return (*T)(b.Pointer()), b, nil
}

// AllocSlice allocates a slice of n elements of type T inside the arena.
// The slice elements are not initialized.
func AllocSlice[T any](a *Arena, n int) ([]T, Block, error) {
	var zero T
	checkAlign(unsafe.Alignof(zero))
	elemSize := int(unsafe.Sizeof(zero))
	if n < 0 || (elemSize > 0 && n > math.MaxInt/elemSize) {
		return nil, Block{}, errors.Wrapf(ErrInvalidSize, "%d elements of %d bytes", n, elemSize)
	}
	b, err := a.Allocate(elemSize * n)
	if err != nil {
		return nil, Block{}, err
	}
	return unsafe.Slice((*T)(b.Pointer()), n), b, nil
}

// AllocSliceZeroed allocates a slice of n elements of type T with zeroed memory.
func AllocSliceZeroed[T any](a *Arena, n int) ([]T, Block, error) {
	s, b, err := AllocSlice[T](a, n)
	if err != nil {
		return nil, Block{}, err
	}
	clear(b.Bytes())
	return s, b, nil
}

// AllocString copies s into the arena and returns the copy.
func AllocString(a *Arena, s string) (string, Block, error) {
	b, err := a.Allocate(len(s))
	if err != nil {
		return "", Block{}, err
	}
	if len(s) == 0 {
		return "", b, nil
	}
	copy(b.Bytes(), s)
	return unsafe.String((*byte)(b.Pointer()), len(s)), b, nil
}

func checkAlign(a uintptr) {
	if a > uintptr(align) {
		panic("arena: type alignment exceeds pointer alignment")
	}
}
