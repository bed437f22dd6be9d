package pool

import (
	"testing"
)

func TestNewRejectsNonPositiveSizes(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		bufSize  int
	}{
		{name: "zero capacity", capacity: 0, bufSize: 64},
		{name: "negative capacity", capacity: -1, bufSize: 64},
		{name: "zero bufSize", capacity: 8, bufSize: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.capacity, tt.bufSize); err == nil {
				t.Fatalf("New(%d, %d) = nil error, want error", tt.capacity, tt.bufSize)
			}
		})
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	p, err := New(4, 128)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, buf, ok := p.Alloc()
	if !ok {
		t.Fatal("Alloc: ok = false, want true")
	}
	if len(buf) != 128 {
		t.Fatalf("len(buf) = %d, want 128", len(buf))
	}
	buf[0] = 0xAB

	view := p.View(h)
	if view[0] != 0xAB {
		t.Fatalf("View(h)[0] = %#x, want 0xab", view[0])
	}

	p.Free(h)
	st := p.Stats()
	if st.InUse != 0 {
		t.Fatalf("Stats().InUse = %d, want 0 after Free", st.InUse)
	}
	if st.Allocs != 1 || st.Frees != 1 {
		t.Fatalf("Stats() = %+v, want Allocs=1 Frees=1", st)
	}
}

func TestAllocNeverReturnsZeroHandle(t *testing.T) {
	p, err := New(4, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	// The free list's first index is 0; the very first Alloc against a
	// fresh pool must still return a nonzero Handle, since 0 is reserved
	// for "no handle borrowed".
	h, _, ok := p.Alloc()
	if !ok {
		t.Fatal("Alloc: ok = false, want true")
	}
	if h == 0 {
		t.Fatal("Alloc() returned the zero Handle, want a handle distinct from \"no handle\"")
	}
}

func TestFreeAllReturnsCapacityToFreeList(t *testing.T) {
	p, err := New(4, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	var handles []Handle
	for i := 0; i < 4; i++ {
		h, _, ok := p.Alloc()
		if !ok {
			t.Fatalf("Alloc() #%d: ok = false, want true", i)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		p.Free(h)
	}

	st := p.Stats()
	if st.InUse != 0 {
		t.Fatalf("Stats().InUse = %d, want 0 after freeing every outstanding handle (free list size + outstanding handles must equal capacity)", st.InUse)
	}
	for i := 0; i < 4; i++ {
		if _, _, ok := p.Alloc(); !ok {
			t.Fatalf("Alloc() #%d after freeing all handles: ok = false, want true", i)
		}
	}
}

func TestAllocExhaustion(t *testing.T) {
	p, err := New(2, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	var handles []Handle
	for i := 0; i < 2; i++ {
		h, _, ok := p.Alloc()
		if !ok {
			t.Fatalf("Alloc() #%d: ok = false, want true", i)
		}
		handles = append(handles, h)
	}

	if _, _, ok := p.Alloc(); ok {
		t.Fatal("Alloc() on exhausted pool: ok = true, want false")
	}
	if st := p.Stats(); st.Exhaustions != 1 {
		t.Fatalf("Stats().Exhaustions = %d, want 1", st.Exhaustions)
	}

	p.Free(handles[0])
	if _, _, ok := p.Alloc(); !ok {
		t.Fatal("Alloc() after Free: ok = false, want true")
	}
}

func TestBuffersDoNotOverlap(t *testing.T) {
	p, err := New(3, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	var bufs [][]byte
	for i := 0; i < 3; i++ {
		_, buf, ok := p.Alloc()
		if !ok {
			t.Fatalf("Alloc() #%d failed", i)
		}
		for j := range buf {
			buf[j] = byte(i)
		}
		bufs = append(bufs, buf)
	}
	for i, buf := range bufs {
		for j, b := range buf {
			if b != byte(i) {
				t.Fatalf("buffer %d byte %d = %d, want %d (overlap)", i, j, b, i)
			}
		}
	}
}
