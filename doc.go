// Package pagearena implements a region ("arena") allocator for Go.
//
// # Overview
//
// An arena hands out variable-sized blocks from a page by advancing a cursor
// and gives every page back at once when it is destroyed. There is no
// per-block free. This suits workloads that build many short-lived objects
// and drop them together:
//
//   - A parse tree per compilation unit
//   - Request-scoped scratch data
//   - Batch decoding where the whole batch is discarded at the end
//
// # Basic Usage
//
//	a, err := pagearena.New(pagearena.Options{})
//	if err != nil {
//		return err
//	}
//	defer a.Destroy()
//
//	// Allocate raw bytes
//	b, err := a.Allocate(1024)
//	buf := b.Bytes()
//
//	// Allocate typed values
//	n, _, err := pagearena.Alloc[node](a)
//	ids, _, err := pagearena.AllocSlice[uint32](a, 100)
//
// # Pages
//
// The first page is small (192 bytes) because many arenas are barely used.
// After that pages have the ideal size (4 KiB by default). A request that
// would take more than half an ideal page gets a page of its own, sized
// exactly; such an orphan page never becomes the bump target, so small
// requests keep filling the current page.
//
// # Verify Mode
//
// With Options.Mode set to ModeVerify, or when built with -tags arena_verify,
// every block gets a header and trailing guard and every page gets guards at
// both ends. Callers must Release each block exactly once. Destroy walks
// every page and reports leaks, double releases, overruns and writes to
// released memory as *Fault values:
//
//	a, _ := pagearena.New(pagearena.Options{Mode: pagearena.ModeVerify})
//	b, _ := a.Allocate(32)
//	...
//	a.Release(b)
//	a.Destroy() // panics with a *Fault if anything went wrong
//
// Blocks of MaxTrackedSize bytes or more are placed on their own page and
// carry no tail guard; overruns past them are not detected.
//
// # Thread Safety
//
// Arena is not thread-safe. For concurrent access, use Locked or one arena
// per goroutine.
//
// # Statistics
//
// With Options.Stats set the arena counts bytes requested against page bytes
// allocated, which is what the ideal page size should be tuned on:
//
//	s := a.Stats()
//	fmt.Printf("waste: %.1f%%\n", s.Waste()*100)
package pagearena
