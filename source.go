package pagearena

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pbnjay/memory"
)

// PageSource is the system allocator an arena takes its pages from. Release
// receives exactly the slices Acquire returned.
type PageSource interface {
	Acquire(size int) ([]byte, error)
	Release(buf []byte) error
}

// HeapSource allocates pages on the Go heap. Released pages are left to the
// garbage collector. Pages larger than MaxHeapPageSize are refused with
// ErrOutOfMemory, since the runtime aborts the process instead of failing
// when make cannot be satisfied.
type HeapSource struct{}

// MaxHeapPageSize is the largest page HeapSource hands out: the machine's
// physical memory, or 1 TiB when that cannot be determined.
var MaxHeapPageSize = heapCeiling()

func heapCeiling() int64 {
	const fallback = 1 << 40
	if total := memory.TotalMemory(); total > 0 && total < fallback {
		return int64(total)
	}
	return fallback
}

func (HeapSource) Acquire(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrOutOfMemory, "invalid page size %d", size)
	}
	if int64(size) > MaxHeapPageSize {
		return nil, errors.Wrapf(ErrOutOfMemory, "page of %d bytes exceeds heap ceiling %d", size, MaxHeapPageSize)
	}
	return make([]byte, size), nil
}

func (HeapSource) Release([]byte) error { return nil }

// LimitedSource caps the number of bytes outstanding from an underlying
// source. Acquire fails with ErrOutOfMemory once the budget would be exceeded.
// It is safe to share between arenas.
type LimitedSource struct {
	Source PageSource // nil means HeapSource
	Limit  int64

	mu   sync.Mutex
	used int64
}

func (s *LimitedSource) source() PageSource {
	if s.Source == nil {
		return HeapSource{}
	}
	return s.Source
}

func (s *LimitedSource) Acquire(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.used+int64(size) > s.Limit {
		return nil, errors.Wrapf(ErrOutOfMemory, "page of %d bytes exceeds budget (%d of %d in use)", size, s.used, s.Limit)
	}
	buf, err := s.source().Acquire(size)
	if err != nil {
		return nil, err
	}
	s.used += int64(len(buf))
	return buf, nil
}

func (s *LimitedSource) Release(buf []byte) error {
	s.mu.Lock()
	s.used -= int64(len(buf))
	s.mu.Unlock()
	return s.source().Release(buf)
}

// InUse returns the number of bytes currently acquired.
func (s *LimitedSource) InUse() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}
