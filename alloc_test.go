package pagearena

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
)

type testStruct struct {
	a int64
	b int32
	c int16
	d int8
}

func TestAlloc(t *testing.T) {
	a := newFastArena(nil)
	defer a.Destroy()

	ptr, b, err := Alloc[int](a)
	if err != nil {
		t.Fatalf("Alloc[int] error = %v", err)
	}
	if ptr == nil || b.IsZero() {
		t.Fatal("Alloc[int] returned nil")
	}
	if *ptr != 0 {
		t.Errorf("Alloc[int] value = %d, want 0 (zeroed)", *ptr)
	}
	if b.Len() != int(unsafe.Sizeof(int(0))) {
		t.Errorf("Alloc[int] block length = %d", b.Len())
	}

	s, _, err := Alloc[testStruct](a)
	if err != nil {
		t.Fatalf("Alloc[testStruct] error = %v", err)
	}
	if s.a != 0 || s.b != 0 || s.c != 0 || s.d != 0 {
		t.Errorf("Alloc[testStruct] not properly zeroed: %+v", *s)
	}

	// Verify we can write to allocated memory
	*ptr = 42
	s.a = 100
	if *ptr != 42 || s.a != 100 {
		t.Error("Could not write to allocated memory")
	}
}

func TestAllocUninitialized(t *testing.T) {
	a := newFastArena(nil)
	defer a.Destroy()

	ptr, _, err := AllocUninitialized[int](a)
	if err != nil {
		t.Fatal(err)
	}

	// We can't test the value since it's uninitialized,
	// but we can verify we can write to it
	*ptr = 123
	if *ptr != 123 {
		t.Error("Could not write to uninitialized memory")
	}
}

func TestAllocSlice(t *testing.T) {
	a := newFastArena(nil)
	defer a.Destroy()

	slice, b, err := AllocSlice[int](a, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(slice) != 10 || cap(slice) != 10 {
		t.Errorf("AllocSlice[int](10) len/cap = %d/%d, want 10/10", len(slice), cap(slice))
	}
	if b.Len() != 10*int(unsafe.Sizeof(int(0))) {
		t.Errorf("AllocSlice[int](10) block length = %d", b.Len())
	}

	empty, eb, err := AllocSlice[int](a, 0)
	if err != nil || len(empty) != 0 || eb.IsZero() {
		t.Errorf("AllocSlice[int](0) = %v, %v, %v", empty, eb, err)
	}

	if _, _, err := AllocSlice[int](a, -1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("AllocSlice[int](-1) error = %v, want ErrInvalidSize", err)
	}
	if _, _, err := AllocSlice[int64](a, 1<<62); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("AllocSlice overflowing int error = %v, want ErrInvalidSize", err)
	}

	// Verify we can write to slice
	for i := range slice {
		slice[i] = i * 2
	}
	for i := range slice {
		if slice[i] != i*2 {
			t.Errorf("slice[%d] = %d, want %d", i, slice[i], i*2)
		}
	}
}

func TestAllocSliceZeroed(t *testing.T) {
	a := newFastArena(nil)
	defer a.Destroy()

	slice, _, err := AllocSliceZeroed[int](a, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(slice) != 5 {
		t.Errorf("AllocSliceZeroed[int](5) length = %d, want 5", len(slice))
	}

	// Verify all elements are zeroed
	for i, v := range slice {
		if v != 0 {
			t.Errorf("slice[%d] = %d, want 0 (zeroed)", i, v)
		}
	}
}

func TestAllocString(t *testing.T) {
	a := newFastArena(nil)
	defer a.Destroy()

	src := []byte("identifier")
	s, b, err := AllocString(a, string(src))
	if err != nil {
		t.Fatal(err)
	}
	src[0] = 'X'
	if s != "identifier" {
		t.Errorf("AllocString = %q, want %q", s, "identifier")
	}
	if b.Len() != len(s) {
		t.Errorf("AllocString block length = %d, want %d", b.Len(), len(s))
	}

	empty, eb, err := AllocString(a, "")
	if err != nil || empty != "" || eb.IsZero() {
		t.Errorf("AllocString(\"\") = %q, %v, %v", empty, eb, err)
	}
}

func TestAllocVerifyRoundTrip(t *testing.T) {
	log := &faultLog{}
	a := newVerifyArena(nil, log)

	n, nb, _ := Alloc[testStruct](a)
	ids, ib, _ := AllocSliceZeroed[uint32](a, 17)
	name, sb, _ := AllocString(a, "node")

	n.a = 1
	ids[16] = 7
	if name != "node" {
		t.Errorf("AllocString = %q", name)
	}

	a.Release(nb)
	a.Release(ib)
	a.Release(sb)
	if err := a.Destroy(); err != nil {
		t.Fatal(err)
	}
	if len(log.faults) != 0 {
		t.Errorf("faults = %v", log.kinds())
	}
}

func TestAllocAlignment(t *testing.T) {
	for _, mode := range []Mode{ModeFast, ModeVerify} {
		a, _ := New(Options{Mode: mode, Logger: quietLogger, OnFault: func(*Fault) {}})

		// Allocate several pointers and verify they're properly aligned
		for i := 0; i < 100; i++ {
			AllocString(a, "odd")
			ptr, _, err := Alloc[int64](a)
			if err != nil {
				t.Fatal(err)
			}
			addr := uintptr(unsafe.Pointer(ptr))
			if addr%unsafe.Alignof(int64(0)) != 0 {
				t.Errorf("%s: pointer %d not properly aligned: %x", mode, i, addr)
			}
		}
		a.Destroy()
	}
}

func BenchmarkAlloc(b *testing.B) {
	b.Run("Alloc[int]", func(b *testing.B) {
		a := newFastArena(nil)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			Alloc[int](a)
			if i%1000 == 999 {
				a.Destroy()
				a = newFastArena(nil)
			}
		}
	})

	b.Run("AllocUninitialized[int]", func(b *testing.B) {
		a := newFastArena(nil)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			AllocUninitialized[int](a)
			if i%1000 == 999 {
				a.Destroy()
				a = newFastArena(nil)
			}
		}
	})
}

func BenchmarkAllocSlice(b *testing.B) {
	sizes := []int{10, 100, 1000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("AllocSlice-%d", size), func(b *testing.B) {
			a := newFastArena(nil)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				AllocSlice[int](a, size)
				if i%100 == 99 {
					a.Destroy()
					a = newFastArena(nil)
				}
			}
		})

		b.Run(fmt.Sprintf("AllocSliceZeroed-%d", size), func(b *testing.B) {
			a := newFastArena(nil)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				AllocSliceZeroed[int](a, size)
				if i%100 == 99 {
					a.Destroy()
					a = newFastArena(nil)
				}
			}
		})
	}
}
