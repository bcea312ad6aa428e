package workload

import (
	"log/slog"
	"math/rand/v2"

	"github.com/cockroachdb/errors"

	"github.com/pavanmanishd/pagearena"
)

// Report summarizes one replay of a profile.
type Report struct {
	Mode          pagearena.Mode
	IdealPageSize int
	Units         int
	Stats         pagearena.Stats // summed over all units
	PeakPages     int             // most pages any single unit held
	PeakCapacity  int             // most page bytes any single unit held
	Faults        int             // verify mode only
}

// sampler draws request sizes from a profile's size classes.
type sampler struct {
	rng     *rand.Rand
	classes []SizeClass
	total   int
}

func newSampler(p *Profile) *sampler {
	s := &sampler{rng: rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)), classes: p.Sizes}
	for _, c := range p.Sizes {
		s.total += c.Weight
	}
	return s
}

func (s *sampler) next() int {
	w := s.rng.IntN(s.total)
	for _, c := range s.classes {
		if w < c.Weight {
			return c.Min + s.rng.IntN(c.Max-c.Min+1)
		}
		w -= c.Weight
	}
	panic("unreachable")
}

// Run replays p against fresh arenas built from opts. Statistics are always
// collected. In verify mode every block is released before its arena is
// destroyed and faults are counted instead of panicking, unless opts already
// carries a fault handler.
func Run(p *Profile, opts pagearena.Options) (Report, error) {
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := Report{Units: p.Units}
	opts.Stats = true
	if opts.OnFault == nil {
		opts.OnFault = func(*pagearena.Fault) { r.Faults++ }
	}

	s := newSampler(p)
	blocks := make([]pagearena.Block, 0, p.Requests)
	for unit := 0; unit < p.Units; unit++ {
		a, err := pagearena.New(opts)
		if err != nil {
			return Report{}, err
		}
		r.Mode, r.IdealPageSize = a.Mode(), a.IdealPageSize()

		blocks = blocks[:0]
		for i := 0; i < p.Requests; i++ {
			b, err := a.Allocate(s.next())
			if err != nil {
				err = errors.Wrapf(err, "unit %d request %d", unit, i)
				if derr := destroy(a); derr != nil {
					err = errors.CombineErrors(err, derr)
				}
				return Report{}, err
			}
			if buf := b.Bytes(); len(buf) > 0 {
				buf[0], buf[len(buf)-1] = byte(i), byte(unit)
			}
			blocks = append(blocks, b)
		}

		m := a.Metrics()
		r.PeakPages = max(r.PeakPages, m.NumPages)
		r.PeakCapacity = max(r.PeakCapacity, m.Capacity)
		r.Stats.Add(a.Stats())

		if a.Mode() == pagearena.ModeVerify {
			for _, b := range blocks {
				a.Release(b)
			}
		}
		if err := a.Destroy(); err != nil && a.Mode() != pagearena.ModeVerify {
			return Report{}, errors.Wrapf(err, "unit %d", unit)
		}
	}

	logger.Debug("workload: replay done", "profile", p.Name, "ideal", r.IdealPageSize,
		"pages", r.Stats.Pages, "waste", r.Stats.Waste(), "faults", r.Faults)
	return r, nil
}

// destroy tears a down after a failed replay. A fault handler that panics
// with a *pagearena.Fault must not hide the error that ended the replay, so
// the fault is returned instead and teardown resumes with the next page.
func destroy(a *pagearena.Arena) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*pagearena.Fault)
			if !ok {
				panic(r)
			}
			err = errors.CombineErrors(f, destroy(a))
		}
	}()
	return a.Destroy()
}

// Tune replays p once per candidate ideal page size.
func Tune(p *Profile, opts pagearena.Options, candidates []int) ([]Report, error) {
	reports := make([]Report, 0, len(candidates))
	for _, size := range candidates {
		opts.IdealPageSize = size
		r, err := Run(p, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "ideal page size %d", size)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Best returns the report with the fewest allocated bytes, preferring fewer
// pages on a tie. It returns false for an empty slice.
func Best(reports []Report) (Report, bool) {
	if len(reports) == 0 {
		return Report{}, false
	}
	best := reports[0]
	for _, r := range reports[1:] {
		if r.Stats.BytesAllocated < best.Stats.BytesAllocated ||
			(r.Stats.BytesAllocated == best.Stats.BytesAllocated && r.Stats.Pages < best.Stats.Pages) {
			best = r
		}
	}
	return best, true
}
