package alloc

import (
	"fmt"
	"sort"
	"unsafe"

	"fortio.org/safecast"

	"github.com/joshuapare/boxkit/internal/buf"
)

const (
	// headerSize is the per-block header: size word followed by state word.
	headerSize = 16

	// minBlock is the smallest block worth splitting off: a header plus one
	// aligned payload unit.
	minBlock = headerSize + Alignment

	stateUsed uint64 = 0x0b0ca11c
	stateFree uint64 = 0x0b0cf4ee
)

// span is a free block: absolute offset into the region and total size
// including the header.
type span struct {
	off  int
	size int
}

// Arena is a first-fit free-list allocator over a Region.
//
// Every block starts with a 16-byte header holding the block size and a
// state word, so Free can reject pointers it never handed out and blocks
// that are already free. Free blocks are kept in an address-ordered list and
// merged with their neighbours on release.
//
// Detection of bad releases is best effort: a stale pointer into memory that
// has since been reused may carry a header that looks valid.
type Arena struct {
	region Region
	data   []byte
	base   uintptr

	// start and end bound the usable, Alignment-aligned part of data.
	start int
	end   int

	free  []span
	stats Stats

	closed bool
}

// NewArena builds an arena over r. The whole usable part of the region
// starts out as a single free block.
func NewArena(r Region) (*Arena, error) {
	data := r.Bytes()
	if len(data) == 0 {
		return nil, ErrRegionTooSmall
	}

	base := uintptr(unsafe.Pointer(&data[0]))
	skip := int(-base & (Alignment - 1))
	usable := (len(data) - skip) &^ (Alignment - 1)
	if usable < minBlock {
		return nil, fmt.Errorf("%w: %d usable bytes, need %d", ErrRegionTooSmall, usable, minBlock)
	}

	a := &Arena{
		region: r,
		data:   data,
		base:   base,
		start:  skip,
		end:    skip + usable,
	}
	a.reset()
	a.stats.Capacity = int64(usable - headerSize)
	return a, nil
}

// NewHeapArena is a shorthand for an arena over a Go heap region of size bytes.
func NewHeapArena(size int) (*Arena, error) {
	return NewArena(NewHeapRegion(size))
}

// NewMappedArena is a shorthand for an arena over an anonymous mapping of size bytes.
func NewMappedArena(size int) (*Arena, error) {
	r, err := MapRegion(size)
	if err != nil {
		return nil, err
	}
	a, err := NewArena(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return a, nil
}

func (a *Arena) reset() {
	a.free = append(a.free[:0], span{off: a.start, size: a.end - a.start})
	a.writeHeader(a.start, a.end-a.start, stateFree)
}

// Alloc returns size bytes from the first free block large enough, or nil
// when none is.
func (a *Arena) Alloc(size uintptr) unsafe.Pointer {
	if a.closed || size == 0 {
		return nil
	}

	total, ok := buf.AddUintptr(size, headerSize)
	if ok {
		total, ok = buf.AlignUp(total, Alignment)
	}
	need, err := safecast.Conv[int](total)
	if !ok || err != nil {
		a.stats.Failed++
		return nil
	}

	for i, s := range a.free {
		if s.size < need {
			continue
		}
		if s.size-need >= minBlock {
			rest := span{off: s.off + need, size: s.size - need}
			a.writeHeader(rest.off, rest.size, stateFree)
			a.free[i] = rest
		} else {
			need = s.size
			a.free = append(a.free[:i], a.free[i+1:]...)
		}
		a.writeHeader(s.off, need, stateUsed|uint64(need-headerSize-int(size))<<32)
		a.stats.recordAlloc(int64(size))
		return unsafe.Pointer(&a.data[s.off+headerSize])
	}

	a.stats.Failed++
	return nil
}

// Release returns p to the arena. It panics when Free reports an error,
// since a bad release is a broken ownership contract, not a runtime
// condition callers can handle.
func (a *Arena) Release(p unsafe.Pointer) {
	if err := a.Free(p); err != nil {
		panic(fmt.Errorf("arena release %p: %w", p, err))
	}
}

// Free returns p to the arena, merging the block with free neighbours.
func (a *Arena) Free(p unsafe.Pointer) error {
	if a.closed {
		return ErrClosed
	}
	off, err := a.offsetOf(p)
	if err != nil {
		return err
	}

	size, state, slack := a.readHeader(off)
	switch state {
	case stateUsed:
	case stateFree:
		return ErrDoubleRelease
	default:
		return ErrBadRelease
	}
	if size < minBlock || off+size > a.end || slack > size-headerSize {
		return ErrBadRelease
	}

	a.stats.recordRelease(int64(size - headerSize - slack))
	a.writeHeader(off, size, stateFree)
	a.insertFree(span{off: off, size: size})
	return nil
}

// offsetOf maps p back to the offset of its block header.
func (a *Arena) offsetOf(p unsafe.Pointer) (int, error) {
	addr := uintptr(p)
	lo := a.base + uintptr(a.start) + headerSize
	hi := a.base + uintptr(a.end)
	if p == nil || addr < lo || addr >= hi {
		return 0, ErrBadRelease
	}
	off := int(addr-a.base) - headerSize
	if (off-a.start)%Alignment != 0 {
		return 0, ErrBadRelease
	}
	return off, nil
}

// insertFree adds s to the address-ordered free list and coalesces it with
// the blocks directly before and after it.
func (a *Arena) insertFree(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > s.off })

	if i < len(a.free) && s.off+s.size == a.free[i].off {
		s.size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == s.off {
		a.free[i-1].size += s.size
		a.writeHeader(a.free[i-1].off, a.free[i-1].size, stateFree)
		return
	}

	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s
	a.writeHeader(s.off, s.size, stateFree)
}

// Reset frees every block at once. Pointers handed out before Reset must not
// be used or released afterwards.
func (a *Arena) Reset() {
	if a.closed {
		return
	}
	a.reset()
	a.stats.InUse = 0
	a.stats.Live = 0
}

// Close releases the underlying region. The arena cannot be used afterwards.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.free = nil
	a.data = nil
	return a.region.Close()
}

// Contains reports whether p points into the arena's usable memory.
func (a *Arena) Contains(p unsafe.Pointer) bool {
	addr := uintptr(p)
	return !a.closed && addr >= a.base+uintptr(a.start) && addr < a.base+uintptr(a.end)
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	s := a.stats
	s.FreeBlocks = len(a.free)
	for _, f := range a.free {
		if n := int64(f.size - headerSize); n > s.LargestFree {
			s.LargestFree = n
		}
	}
	return s
}

// Verify walks every block header from start to end and checks that the
// blocks tile the arena exactly and that the free list matches the headers.
func (a *Arena) Verify() error {
	if a.closed {
		return ErrClosed
	}
	fi := 0
	var live int64
	for off := a.start; off < a.end; {
		size, state, _ := a.readHeader(off)
		if size < minBlock || off+size > a.end || size%Alignment != 0 {
			return fmt.Errorf("block at %#x: bad size %d", off, size)
		}
		switch state {
		case stateUsed:
			live++
		case stateFree:
			if fi >= len(a.free) || a.free[fi] != (span{off: off, size: size}) {
				return fmt.Errorf("block at %#x: free block missing from free list", off)
			}
			fi++
		default:
			return fmt.Errorf("block at %#x: bad state %#x", off, state)
		}
		off += size
	}
	if fi != len(a.free) {
		return fmt.Errorf("free list has %d entries, headers show %d", len(a.free), fi)
	}
	if live != a.stats.Live {
		return fmt.Errorf("headers show %d live blocks, stats show %d", live, a.stats.Live)
	}
	return nil
}

func (a *Arena) writeHeader(off, size int, state uint64) {
	buf.PutU64LE(a.data[off:], uint64(size))
	buf.PutU64LE(a.data[off+8:], state)
}

// readHeader decodes the header at off. The low half of the state word is
// the block state; for used blocks the high half holds the slack between the
// requested size and the block's payload capacity.
func (a *Arena) readHeader(off int) (size int, state uint64, slack int) {
	if !buf.Has(a.data, off, headerSize) {
		return 0, 0, 0
	}
	size, err := safecast.Conv[int](buf.U64LE(a.data[off:]))
	if err != nil {
		return 0, 0, 0
	}
	word := buf.U64LE(a.data[off+8:])
	return size, word & 0xffffffff, int(word >> 32)
}

var _ Allocator = (*Arena)(nil)
