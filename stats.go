package pagearena

// Stats counts what an arena was asked for and what it carved out of the
// PageSource. It is only collected when Options.Stats is set.
type Stats struct {
	BytesRequested uint64 // sum of sizes passed to Allocate
	BytesAllocated uint64 // sum of usable page capacity, excluding per-page guards
	Pages          uint64 // pages created, orphans included
	Orphans        uint64 // pages dedicated to a single oversized request
	Requests       uint64 // successful Allocate calls
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.BytesRequested += o.BytesRequested
	s.BytesAllocated += o.BytesAllocated
	s.Pages += o.Pages
	s.Orphans += o.Orphans
	s.Requests += o.Requests
}

// Waste returns the fraction of allocated page capacity that was never
// requested: rounding, verification headers and unused page tails.
func (s Stats) Waste() float64 {
	if s.BytesAllocated == 0 {
		return 0
	}
	return 1 - float64(s.BytesRequested)/float64(s.BytesAllocated)
}

// Stats returns the counters collected so far. All fields are zero when
// statistics are disabled.
func (a *Arena) Stats() Stats {
	return a.stats
}

// SizeInUse returns the number of page bytes handed out, including alignment
// padding and verification headers.
func (a *Arena) SizeInUse() int {
	sum := 0
	for p := a.pages; p != nil; p = p.next {
		sum += p.used - p.start
	}
	return sum
}

// NumPages returns the number of pages the arena currently owns.
func (a *Arena) NumPages() int {
	n := 0
	for p := a.pages; p != nil; p = p.next {
		n++
	}
	return n
}

// Capacity returns the total size of all pages in bytes.
func (a *Arena) Capacity() int {
	sum := 0
	for p := a.pages; p != nil; p = p.next {
		sum += len(p.buf)
	}
	return sum
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// IdealPageSize returns the steady-state page size of this arena.
func (a *Arena) IdealPageSize() int {
	return a.opts.IdealPageSize
}

// Metrics returns a snapshot of the arena's page usage.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:     a.SizeInUse(),
		Capacity:      a.Capacity(),
		NumPages:      a.NumPages(),
		IdealPageSize: a.IdealPageSize(),
		Utilization:   a.Utilization(),
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse     int     // Bytes handed out from pages
	Capacity      int     // Total page bytes
	NumPages      int     // Number of pages
	IdealPageSize int     // Steady-state page size
	Utilization   float64 // Ratio of used to total capacity (0.0-1.0)
}
