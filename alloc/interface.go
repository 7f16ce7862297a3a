package alloc

import "unsafe"

// Alignment is the minimum alignment of every pointer returned by Alloc.
// It keeps the low bits of live addresses free for tagging.
const Alignment = 16

// Allocator hands out raw, uninitialised storage.
//
// Implementations:
//   - Arena: free-list allocator over a Region
//   - Heap: Go-heap-backed allocator
//   - Tracking, Limited, Locked, Logged: wrappers around another Allocator
//   - Failing: always fails
type Allocator interface {
	// Alloc returns size bytes aligned to Alignment, or nil when the request
	// cannot be satisfied. A zero size always returns nil.
	Alloc(size uintptr) unsafe.Pointer

	// Release returns p to the allocator. p must come from Alloc on the same
	// allocator and must not have been released already.
	Release(p unsafe.Pointer)
}

// Region is a contiguous block of memory an Arena carves allocations from.
// The address of Bytes()[0] must stay fixed until Close.
type Region interface {
	Bytes() []byte
	Close() error
}
