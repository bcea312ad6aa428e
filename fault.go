package pagearena

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
)

var (
	// ErrOutOfMemory is returned by Allocate when the PageSource cannot
	// provide a page. The arena is left unchanged.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrInvalidSize is returned by Allocate for negative sizes.
	ErrInvalidSize = errors.New("arena: invalid allocation size")

	// ErrInvalidOptions is returned by New for unusable Options.
	ErrInvalidOptions = errors.New("arena: invalid options")
)

// Sentinels matched by Fault values through errors.Is.
var (
	ErrLeak            = errors.New("arena: allocation never released")
	ErrDoubleRelease   = errors.New("arena: allocation released more than once")
	ErrCorruption      = errors.New("arena: guard pattern corrupted")
	ErrUseAfterRelease = errors.New("arena: released memory was written")
	ErrForeignBlock    = errors.New("arena: block does not belong to this arena")
)

// FaultKind classifies a verification failure.
type FaultKind int

const (
	FaultLeak FaultKind = iota + 1
	FaultDoubleRelease
	FaultHeadGuard
	FaultTailGuard
	FaultPageGuard
	FaultUseAfterRelease
	FaultForeignBlock
)

var faultKindNames = map[FaultKind]string{
	FaultLeak:            "leak",
	FaultDoubleRelease:   "double release",
	FaultHeadGuard:       "head guard corrupted",
	FaultTailGuard:       "tail guard corrupted",
	FaultPageGuard:       "page guard corrupted",
	FaultUseAfterRelease: "use after release",
	FaultForeignBlock:    "foreign block",
}

func (k FaultKind) String() string {
	if s, ok := faultKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Fault describes a memory-safety violation found in verify mode. It is a
// programmer error: the memory it points at can no longer be trusted.
type Fault struct {
	Kind     FaultKind
	Page     uint64  // page sequence number, starting at 1
	PageBase uintptr // address of the page's first byte
	Offset   int     // offset of the usable bytes within the page
	Size     int     // recorded allocation size
	Releases int     // release counter at the time of the fault
}

// Addr returns the address of the usable bytes the fault refers to.
func (f *Fault) Addr() uintptr {
	return f.PageBase + uintptr(f.Offset)
}

func (f *Fault) Error() string {
	return fmt.Sprintf("arena: %s at %#x (page %d +%d, size %d, releases %d)",
		f.Kind, f.Addr(), f.Page, f.Offset, f.Size, f.Releases)
}

// Unwrap returns the sentinel matching the fault's kind.
func (f *Fault) Unwrap() error {
	switch f.Kind {
	case FaultLeak:
		return ErrLeak
	case FaultDoubleRelease:
		return ErrDoubleRelease
	case FaultHeadGuard, FaultTailGuard, FaultPageGuard:
		return ErrCorruption
	case FaultUseAfterRelease:
		return ErrUseAfterRelease
	case FaultForeignBlock:
		return ErrForeignBlock
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (f *Fault) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", f.Kind.String()),
		slog.Uint64("page", f.Page),
		slog.String("addr", fmt.Sprintf("%#x", f.Addr())),
		slog.Int("offset", f.Offset),
		slog.Int("size", f.Size),
		slog.Int("releases", f.Releases),
	)
}

// panicOnFault is the default fault handler.
func panicOnFault(f *Fault) {
	panic(f)
}
