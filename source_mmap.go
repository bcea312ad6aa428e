package pagearena

import (
	"github.com/cockroachdb/errors"
	"github.com/edsrzf/mmap-go"
)

// MmapSource maps every page as an anonymous private mapping and unmaps it
// when the arena is destroyed. Pages are rounded up to the OS page size by
// the kernel, so it suits ideal page sizes that are a multiple of it.
type MmapSource struct{}

func (MmapSource) Acquire(size int) ([]byte, error) {
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "mmap %d bytes", size), ErrOutOfMemory)
	}
	return m, nil
}

func (MmapSource) Release(buf []byte) error {
	m := mmap.MMap(buf)
	return errors.Wrap(m.Unmap(), "munmap")
}
