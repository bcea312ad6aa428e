package pagearena

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

// countingSource records every page it hands out and takes back.
type countingSource struct {
	sizes    []int
	released int
	fail     bool
}

func (s *countingSource) Acquire(size int) ([]byte, error) {
	if s.fail {
		return nil, errors.Wrap(ErrOutOfMemory, "injected")
	}
	s.sizes = append(s.sizes, size)
	return make([]byte, size), nil
}

func (s *countingSource) Release([]byte) error {
	s.released++
	return nil
}

// faultLog collects faults instead of panicking.
type faultLog struct {
	faults []*Fault
}

func (l *faultLog) record(f *Fault) {
	l.faults = append(l.faults, f)
}

func (l *faultLog) kinds() []FaultKind {
	kinds := make([]FaultKind, 0, len(l.faults))
	for _, f := range l.faults {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

var quietLogger = slog.New(slog.DiscardHandler)

func newFastArena(src PageSource) *Arena {
	a, err := New(Options{Mode: ModeFast, Stats: true, Source: src, Logger: quietLogger})
	if err != nil {
		panic(err)
	}
	return a
}

func newVerifyArena(src PageSource, log *faultLog) *Arena {
	a, err := New(Options{Mode: ModeVerify, Stats: true, Source: src, Logger: quietLogger, OnFault: log.record})
	if err != nil {
		panic(err)
	}
	return a
}
