package alloc

import (
	"fmt"
	"unsafe"
)

// Heap is an Allocator backed by the Go heap. Each allocation is its own
// []uint64 block, kept reachable in a map until Release so the collector
// does not reclaim it while only its address is held.
//
// The blocks are scanned as plain words, so values stored in them must not
// contain Go pointers.
type Heap struct {
	blocks map[uintptr][]uint64
	stats  Stats
	sizes  map[uintptr]uintptr
}

// NewHeap returns an empty Go-heap allocator.
func NewHeap() *Heap {
	return &Heap{
		blocks: make(map[uintptr][]uint64),
		sizes:  make(map[uintptr]uintptr),
	}
}

// Alloc returns a fresh zeroed block of at least size bytes.
func (h *Heap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	words := make([]uint64, (size+Alignment+7)/8)
	p := unsafe.Pointer(&words[0])
	if skip := -uintptr(p) & (Alignment - 1); skip != 0 {
		p = unsafe.Add(p, skip)
	}
	h.blocks[uintptr(p)] = words
	h.sizes[uintptr(p)] = size
	h.stats.recordAlloc(int64(size))
	return p
}

// Release drops the block for p. It panics on pointers it does not own.
func (h *Heap) Release(p unsafe.Pointer) {
	addr := uintptr(p)
	if _, ok := h.blocks[addr]; !ok {
		panic(fmt.Errorf("heap release %p: %w", p, ErrBadRelease))
	}
	h.stats.recordRelease(int64(h.sizes[addr]))
	delete(h.blocks, addr)
	delete(h.sizes, addr)
}

// Stats returns a snapshot of the heap counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

var _ Allocator = (*Heap)(nil)
