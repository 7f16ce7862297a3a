package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/boxkit/internal/mmfile"
)

// heapRegion is a Region backed by a Go heap []uint64. The Go runtime does
// not move heap objects, so addresses into it stay valid while the region is
// reachable.
type heapRegion struct {
	words []uint64
	data  []byte
}

// NewHeapRegion returns a Region of size bytes allocated on the Go heap.
func NewHeapRegion(size int) Region {
	if size <= 0 {
		return &heapRegion{}
	}
	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	return &heapRegion{words: words, data: data}
}

func (r *heapRegion) Bytes() []byte { return r.data }

func (r *heapRegion) Close() error {
	r.words = nil
	r.data = nil
	return nil
}

// mappedRegion is a Region backed by a memory mapping.
type mappedRegion struct {
	data    []byte
	cleanup func() error
}

// MapRegion returns a Region of size bytes of anonymous mapped memory.
func MapRegion(size int) (Region, error) {
	data, cleanup, err := mmfile.MapAnon(size)
	if err != nil {
		return nil, err
	}
	return &mappedRegion{data: data, cleanup: cleanup}, nil
}

// MapFileRegion returns a Region of size bytes backed by a shared mapping of
// the file at path. The file is created or extended as needed.
func MapFileRegion(path string, size int) (Region, error) {
	data, cleanup, err := mmfile.MapFile(path, size)
	if err != nil {
		return nil, fmt.Errorf("map file region: %w", err)
	}
	return &mappedRegion{data: data, cleanup: cleanup}, nil
}

func (r *mappedRegion) Bytes() []byte { return r.data }

func (r *mappedRegion) Close() error {
	r.data = nil
	return r.cleanup()
}
