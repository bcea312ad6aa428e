package pagearena

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultIdealPageSize is the steady-state page size (4 KiB).
	DefaultIdealPageSize = 4096

	// DefaultFirstPageSize is the size of the first page an arena creates.
	// It is deliberately small: many arenas see little or no traffic.
	DefaultFirstPageSize = 192

	// DefaultMaxTrackedSize is the largest allocation size the verification
	// header records exactly. Larger requests are still served but their
	// recorded size saturates and their tail guard is not written.
	DefaultMaxTrackedSize = 65535
)

// Mode selects the allocation strategy of an arena.
type Mode int

const (
	// ModeDefault resolves to ModeVerify when built with the arena_verify
	// tag and to ModeFast otherwise.
	ModeDefault Mode = iota
	// ModeFast is the unguarded bump allocator.
	ModeFast
	// ModeVerify wraps every allocation with a header and guards and checks
	// all of them when the arena is destroyed.
	ModeVerify
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeFast:
		return "fast"
	case ModeVerify:
		return "verify"
	}
	return "unknown"
}

// Options configures an Arena. The zero value is usable.
type Options struct {
	Mode  Mode
	Stats bool // collect allocation statistics

	IdealPageSize  int // default DefaultIdealPageSize
	FirstPageSize  int // default DefaultFirstPageSize
	MaxTrackedSize int // verify mode only; default DefaultMaxTrackedSize

	// Source provides page memory. Defaults to HeapSource.
	Source PageSource

	// Logger receives page lifecycle records at debug level and faults at
	// error level. Defaults to slog.Default().
	Logger *slog.Logger

	// OnFault is called for every fault found in verify mode. The default
	// handler logs the fault and panics with it.
	OnFault func(*Fault)
}

// withDefaults returns a copy of o with zero fields filled in and validates it.
func (o Options) withDefaults() (Options, error) {
	if o.Mode == ModeDefault {
		o.Mode = defaultMode
	}
	if o.IdealPageSize == 0 {
		o.IdealPageSize = DefaultIdealPageSize
	}
	if o.FirstPageSize == 0 {
		o.FirstPageSize = DefaultFirstPageSize
	}
	if o.MaxTrackedSize == 0 {
		o.MaxTrackedSize = DefaultMaxTrackedSize
	}
	if o.Source == nil {
		o.Source = HeapSource{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	switch {
	case o.Mode != ModeFast && o.Mode != ModeVerify:
		return o, errors.Wrapf(ErrInvalidOptions, "unknown mode %d", int(o.Mode))
	case o.IdealPageSize < 0 || o.FirstPageSize < 0:
		return o, errors.Wrapf(ErrInvalidOptions, "negative page size (ideal %d, first %d)", o.IdealPageSize, o.FirstPageSize)
	case o.MaxTrackedSize < 0 || int64(o.MaxTrackedSize) > math.MaxUint32:
		return o, errors.Wrapf(ErrInvalidOptions, "max tracked size %d out of range", o.MaxTrackedSize)
	}

	// A page must at least hold its own guards plus one minimal allocation.
	least := 2*pageGuardSize + headerSize + guardSize + align
	if o.IdealPageSize < least || o.FirstPageSize < least {
		return o, errors.Wrapf(ErrInvalidOptions, "page sizes must be at least %d bytes (ideal %d, first %d)", least, o.IdealPageSize, o.FirstPageSize)
	}
	return o, nil
}
