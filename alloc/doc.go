// Package alloc provides the raw allocators that back boxkit's owning pointers.
//
// # Overview
//
// Box storage lives outside the Go garbage collector's view: in anonymous or
// file-backed memory mappings, or in Go heap blocks that the allocator keeps
// reachable itself. The Allocator interface is deliberately tiny so it can be
// implemented over any of these:
//
//   - Alloc(size): return size bytes aligned to Alignment, or nil on failure
//   - Release(p): give back a pointer previously returned by Alloc
//
// # Implementations
//
// Arena: first-fit free-list allocator over a Region
//
//   - 16-byte block headers (size word + state word)
//   - block splitting on allocation, coalescing of neighbours on free
//   - Free(p) reports bad and double releases as errors
//
// Heap: one Go heap block per allocation, kept alive until Release
//
// # Wrappers
//
//   - Tracking: counts allocations and releases, detects double and unknown
//     releases without forwarding them, optionally records an event log
//   - Limit: fails every allocation after the first n
//   - Failing: fails every allocation
//   - Locked: serialises access with a mutex
//   - Logged: logs every call through a zap.Logger
//
// # Usage Example
//
//	region, err := alloc.MapRegion(1 << 20)
//	if err != nil {
//	    return err
//	}
//	arena, err := alloc.NewArena(region)
//	if err != nil {
//	    return err
//	}
//	defer arena.Close()
//
//	p := arena.Alloc(64)
//	if p == nil {
//	    return errOutOfMemory
//	}
//	defer arena.Release(p)
//
// # Thread Safety
//
// None of the allocators are thread-safe on their own. Wrap them with Locked
// when several goroutines share one.
package alloc
