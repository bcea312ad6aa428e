package pagearena

import "sync"

// Locked is a mutex-protected wrapper around an Arena for callers with
// several producers. Every operation holds the lock for its whole duration.
type Locked struct {
	mu sync.Mutex
	a  *Arena
}

// NewLocked creates a Locked arena with the given options.
func NewLocked(opts Options) (*Locked, error) {
	a, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &Locked{a: a}, nil
}

// Allocate thread-safely allocates n bytes.
func (l *Locked) Allocate(n int) (Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Allocate(n)
}

// Release thread-safely releases b.
func (l *Locked) Release(b Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Release(b)
}

// Destroy thread-safely destroys the arena.
func (l *Locked) Destroy() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Destroy()
}

// Stats thread-safely returns the arena's counters.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}

// Metrics thread-safely returns a snapshot of page usage.
func (l *Locked) Metrics() ArenaMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Metrics()
}

// Do runs fn with the lock held. Use it for the typed helpers:
//
//	err := l.Do(func(a *pagearena.Arena) error {
//		n, b, err := pagearena.Alloc[node](a)
//		...
//	})
func (l *Locked) Do(fn func(a *Arena) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.a)
}

// LockedAlloc thread-safely returns a pointer to a zeroed T inside the arena.
func LockedAlloc[T any](l *Locked) (*T, Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Alloc[T](l.a)
}

// LockedAllocSlice thread-safely allocates a zeroed slice of n elements.
func LockedAllocSlice[T any](l *Locked, n int) ([]T, Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return AllocSliceZeroed[T](l.a, n)
}
